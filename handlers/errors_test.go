package handlers

import (
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"testing"

	"composer/config"
	"composer/services"

	"github.com/stretchr/testify/assert"
)

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{fmt.Errorf("/x: %w", errPathOutsideLibrary), http.StatusForbidden},
		{errPathRequired, http.StatusBadRequest},
		{services.ErrLyricsNotFound, http.StatusNotFound},
		{services.ErrScanNotFound, http.StatusNotFound},
		{services.ErrNoAlbumArt, http.StatusNotFound},
		{fmt.Errorf("song: %w", services.ErrNoMatch), http.StatusNotFound},
		{&fs.PathError{Op: "stat", Path: "/x", Err: fs.ErrNotExist}, http.StatusNotFound},
		{services.ErrLyricsExist, http.StatusConflict},
		{services.ErrEmbedUnsupported, http.StatusBadRequest},
		{services.ErrUnsupportedFile, http.StatusBadRequest},
		{services.ErrNoLyricsContent, http.StatusBadRequest},
		{services.ErrInvalidJob, http.StatusBadRequest},
		{config.ErrInvalidSettings, http.StatusBadRequest},
		{services.ErrQueueFull, http.StatusServiceUnavailable},
		{errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			assert.Equal(t, tt.want, statusFor(tt.err))
		})
	}
}
