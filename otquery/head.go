package otquery

import (
	"encoding/binary"

	"github.com/npillmayer/opentext/ot"
)

// HeadTableInfo holds the fields of table 'head'.
// It adds the fields which package ot does not keep to the parsed values.
type HeadTableInfo struct {
	MajorVersion       uint16
	MinorVersion       uint16
	FontRevision       uint32 // 16.16 fixed
	CheckSumAdjustment uint32
	MagicNumber        uint32
	Flags              uint16
	UnitsPerEm         uint16
	Created            int64
	Modified           int64
	XMin, YMin         int16
	XMax, YMax         int16
	MacStyle           uint16
	LowestRecPPEM      uint16
	FontDirectionHint  int16
	IndexToLocFormat   int16
	GlyphDataFormat    int16
}

const headTableSize = 54

// HeadInfo returns the contents of table 'head'.
// Returns (info, true) on success, or (zero, false) if the table is missing or too short.
func HeadInfo(otf *ot.Font) (HeadTableInfo, bool) {
	var info HeadTableInfo
	if otf == nil || otf.Head == nil {
		return info, false
	}
	b := otf.Head.Binary()
	if len(b) < headTableSize {
		return info, false
	}
	h := otf.Head
	info.Flags, info.UnitsPerEm = h.Flags, h.UnitsPerEm
	info.Created, info.Modified = h.Created, h.Modified
	info.XMin, info.YMin, info.XMax, info.YMax = h.XMin, h.YMin, h.XMax, h.YMax
	info.MacStyle, info.LowestRecPPEM = h.MacStyle, h.LowestRecPPEM
	info.IndexToLocFormat = h.IndexToLocFormat
	info.MajorVersion = binary.BigEndian.Uint16(b[0:2])
	info.MinorVersion = binary.BigEndian.Uint16(b[2:4])
	info.FontRevision = binary.BigEndian.Uint32(b[4:8])
	info.CheckSumAdjustment = binary.BigEndian.Uint32(b[8:12])
	info.MagicNumber = binary.BigEndian.Uint32(b[12:16])
	info.FontDirectionHint = int16(binary.BigEndian.Uint16(b[48:50]))
	info.GlyphDataFormat = int16(binary.BigEndian.Uint16(b[52:54]))
	return info, true
}

// IsBold reports the bold bit of head.macStyle.
func (h HeadTableInfo) IsBold() bool { return h.MacStyle&0x01 != 0 }

// IsItalic reports the italic bit of head.macStyle.
func (h HeadTableInfo) IsItalic() bool { return h.MacStyle&0x02 != 0 }
