package analyzer

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

var (
	testMarkers   = []string{"UAE", "United Arab Emirates", "Dubai", "Abu Dhabi", "Sharjah"}
	testDialCodes = []string{"+971", "00971"}
)

func TestPresenceDetector_CityMarker(t *testing.T) {
	d := NewRegionPresenceDetector(testMarkers, testDialCodes)

	assert.True(t, d.Detect("Currently based in Dubai, looking for new opportunities."))
	assert.True(t, d.Detect("Address: Abu Dhabi, United Arab Emirates"))
	assert.False(t, d.Detect("Based in London with remote experience."))
}

func TestPresenceDetector_CaseInsensitive(t *testing.T) {
	d := NewRegionPresenceDetector(testMarkers, testDialCodes)

	assert.True(t, d.Detect("relocating to DUBAI next month"))
	assert.True(t, d.Detect("worked in sharjah for 3 years"))
}

func TestPresenceDetector_DialCode(t *testing.T) {
	d := NewRegionPresenceDetector(testMarkers, testDialCodes)

	assert.True(t, d.Detect("Phone: +971 50 123 4567"))
	assert.True(t, d.Detect("Contact 00971501234567"))
	assert.False(t, d.Detect("Phone: +44 20 7946 0958"))
}

func TestPresenceDetector_WholeWordMarkers(t *testing.T) {
	d := NewRegionPresenceDetector([]string{"UAE"}, nil)

	// 标记词要求整词命中，不能匹配到其它单词的内部
	assert.False(t, d.Detect("worked at quaetech systems"))
	assert.True(t, d.Detect("UAE work permit holder"))
}

func TestPresenceDetector_AnyPositiveSignalWins(t *testing.T) {
	d := NewRegionPresenceDetector(testMarkers, testDialCodes)

	// 冲突信号按乐观策略处理，存在任一正向标记即判定为真
	assert.True(t, d.Detect("Based in London, previously Dubai."))
}

func TestPresenceDetector_EmptyInputs(t *testing.T) {
	d := NewRegionPresenceDetector(nil, nil)
	assert.False(t, d.Detect("Dubai based engineer"))

	d = NewRegionPresenceDetector(testMarkers, testDialCodes)
	assert.False(t, d.Detect(""))
}
