package parser

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"resume-filter-go/internal/constants"
	"resume-filter-go/internal/types"
)

func TestResumeParser_UnsupportedFormat(t *testing.T) {
	p := NewResumeParser(nil, nil)

	cases := []struct {
		name     string
		filename string
		declared types.FileType
	}{
		{"明确声明未知类型", "resume.txt", types.FileTypeUnknown},
		{"按扩展名推断为未知", "resume.txt", ""},
		{"无扩展名", "resume", ""},
		{"旧版doc格式", "resume.doc", ""},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			doc, err := p.Parse(context.Background(), tc.filename, []byte("plain text"), tc.declared)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrUnsupportedFormat)
			assert.Contains(t, err.Error(), tc.filename)
			assert.Nil(t, doc)
		})
	}
}

func TestResumeParser_TypeInferenceFromFilename(t *testing.T) {
	assert.Equal(t, types.FileTypePDF, types.FileTypeFromFilename("cv.pdf"))
	assert.Equal(t, types.FileTypePDF, types.FileTypeFromFilename("CV.PDF"))
	assert.Equal(t, types.FileTypeDOCX, types.FileTypeFromFilename("cv.docx"))
	assert.Equal(t, types.FileTypeUnknown, types.FileTypeFromFilename("cv.txt"))
	assert.Equal(t, types.FileTypeUnknown, types.FileTypeFromFilename("cv"))
}

func TestResumeParser_MinTextLengthOption(t *testing.T) {
	p := NewResumeParser(nil, nil)
	assert.Equal(t, constants.MinTextLength, p.minTextLength)

	p = NewResumeParser(nil, nil, WithMinTextLength(250))
	assert.Equal(t, 250, p.minTextLength)

	// 非法阈值保持默认
	p = NewResumeParser(nil, nil, WithMinTextLength(0))
	assert.Equal(t, constants.MinTextLength, p.minTextLength)
}

func TestDocxExtractor_RejectsCorruptedArchive(t *testing.T) {
	e := NewDocxExtractor(nil)

	_, err := e.ExtractTextFromBytes(context.Background(), []byte("not a zip archive"), "broken.docx")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrParseFailed)
}
