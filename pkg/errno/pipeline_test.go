package errno

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsPermanent(t *testing.T) {
	cause := errors.New("boom")

	assert.True(t, IsPermanent(&MetadataError{Path: "a.mp4", Err: cause}))
	assert.True(t, IsPermanent(fmt.Errorf("stage: %w", &ToolUnavailableError{Binary: "ffmpeg", Err: cause})))
	assert.False(t, IsPermanent(&EncodeError{Profile: "720p", Err: cause}))
	assert.False(t, IsPermanent(cause))
}

func TestErrorsUnwrap(t *testing.T) {
	err := fmt.Errorf("encode: %w", &StorageError{Path: "x.mp4", Err: ErrEmptyOutput})
	assert.ErrorIs(t, err, ErrEmptyOutput)

	var se *StorageError
	assert.ErrorAs(t, err, &se)
	assert.Equal(t, "x.mp4", se.Path)
}

func TestDecode(t *testing.T) {
	code, msg := Decode(NewBizError(ErrDatabase, errors.New("locked")))
	assert.Equal(t, ErrDatabase.Code, code)
	assert.Contains(t, msg, "locked")

	code, _ = Decode(fmt.Errorf("wrap: %w", ErrAssetNotFound))
	assert.Equal(t, ErrAssetNotFound.Code, code)

	code, _ = Decode(errors.New("plain"))
	assert.Equal(t, ErrInternalServer.Code, code)
}
