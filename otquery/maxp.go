package otquery

import (
	"encoding/binary"

	"github.com/npillmayer/opentext/ot"
)

// MaxPTableInfo is a typed query view over OpenType table 'maxp'.
// For version 1.0 tables, the TrueType profile fields are decoded if present.
type MaxPTableInfo struct {
	VersionFixed uint32
	NumGlyphs    uint16

	HasExtendedProfile    bool // version 1.0 only
	MaxPoints             uint16
	MaxContours           uint16
	MaxCompositePoints    uint16
	MaxCompositeContours  uint16
	MaxZones              uint16
	MaxTwilightPoints     uint16
	MaxStorage            uint16
	MaxFunctionDefs       uint16
	MaxInstructionDefs    uint16
	MaxStackElements      uint16
	MaxSizeOfInstructions uint16
	MaxComponentElements  uint16
	MaxComponentDepth     uint16
}

const maxpV10Size = 32

// MaxPInfo returns the contents of table 'maxp'.
// Returns (info, true) on success, or (zero, false) if the table is missing.
func MaxPInfo(otf *ot.Font) (MaxPTableInfo, bool) {
	var info MaxPTableInfo
	if otf == nil || otf.MaxP == nil {
		return info, false
	}
	maxp := otf.MaxP
	info.VersionFixed = maxp.Version
	info.NumGlyphs = uint16(maxp.NumGlyphs)
	b := maxp.Binary()
	if info.VersionFixed != 0x00010000 || len(b) < maxpV10Size {
		return info, true
	}
	info.HasExtendedProfile = true
	fields := []*uint16{
		&info.MaxPoints, &info.MaxContours, &info.MaxCompositePoints, &info.MaxCompositeContours,
		&info.MaxZones, &info.MaxTwilightPoints, &info.MaxStorage, &info.MaxFunctionDefs,
		&info.MaxInstructionDefs, &info.MaxStackElements, &info.MaxSizeOfInstructions,
		&info.MaxComponentElements, &info.MaxComponentDepth,
	}
	for i, f := range fields {
		*f = binary.BigEndian.Uint16(b[6+2*i:])
	}
	return info, true
}
