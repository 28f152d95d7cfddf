package otuse

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCategories(t *testing.T) {
	for r, cat := range map[rune]uint8{
		0x1B13: catB,    // Balinese ka
		0x1B3E: catVPre, // Balinese taling
		0x1B44: catH,    // Balinese adeg adeg
		0x1B38: catVBlw, // Balinese suku
		0x1B36: catVAbv, // Balinese ulu
		0x0DCA: catH,    // Sinhala al-lakuna
		0x0D9A: catB,    // Sinhala ka
		0x17D2: catIS,   // Khmer coeng
		0x200C: catZWNJ,
		0x200D: catCGJ,
		0x25CC: catGB,
		'A':    catB,
		'!':    catO,
	} {
		assert.Equal(t, cat, category(r), "category of %U", r)
	}
}

func TestClusterMachine(t *testing.T) {
	find := func(cats ...uint8) []uint8 {
		var types []uint8
		for _, s := range machine.Find(cats) {
			types = append(types, s.Type)
		}
		return types
	}
	assert.Equal(t, []uint8{standardCluster}, find(catB, catH, catB, catVPre))
	assert.Equal(t, []uint8{viramaTerminatedCluster}, find(catB, catIS))
	assert.Equal(t, []uint8{standardCluster, standardCluster}, find(catR, catB, catVAbv, catB))
	assert.Equal(t, []uint8{brokenCluster}, find(catVPre))
	assert.Equal(t, []uint8{standardCluster}, find(catGB, catZWNJ, catVAbv))
	assert.Equal(t, []uint8{symbolCluster, nonCluster}, find(catO, catZWNJ))
}
