package bot

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/disgoorg/disgo/rest"
	"github.com/stretchr/testify/assert"
)

func TestIsNotFound(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		err      error
		notFound bool
	}{
		{
			name: "rest 404",
			err: &rest.Error{
				Response: &http.Response{StatusCode: http.StatusNotFound},
			},
			notFound: true,
		},
		{
			name: "wrapped rest 404",
			err: fmt.Errorf("failed to delete message: %w", &rest.Error{
				Response: &http.Response{StatusCode: http.StatusNotFound},
			}),
			notFound: true,
		},
		{
			name: "rest 403",
			err: &rest.Error{
				Response: &http.Response{StatusCode: http.StatusForbidden},
			},
			notFound: false,
		},
		{
			name:     "rest error without response",
			err:      &rest.Error{},
			notFound: false,
		},
		{
			name:     "plain error",
			err:      errors.New("connection reset"),
			notFound: false,
		},
		{
			name:     "nil error",
			err:      nil,
			notFound: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tt.notFound, isNotFound(tt.err))
		})
	}
}
