package errors_test

import (
	stderrors "errors"
	"fmt"
	"testing"

	mcerr "github.com/xuanbachtran02/MusicCat/internal/errors"

	"github.com/stretchr/testify/assert"
)

func TestKindOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want mcerr.Kind
	}{
		{"validation", mcerr.Validation("bad position"), mcerr.KindValidation},
		{"precondition", mcerr.Precondition("not in voice"), mcerr.KindPrecondition},
		{"not found", mcerr.NotFound("no results"), mcerr.KindNotFound},
		{"not seekable", mcerr.NotSeekable("stream"), mcerr.KindNotSeekable},
		{"external", mcerr.External("node down", stderrors.New("dial tcp")), mcerr.KindExternal},
		{"plain error defaults to external", stderrors.New("boom"), mcerr.KindExternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, mcerr.KindOf(tt.err))
		})
	}
}

func TestWrapfKeepsKind(t *testing.T) {
	inner := mcerr.NotFound("no results")
	wrapped := mcerr.Wrapf(inner, "resolving %q", "some query")

	assert.Equal(t, mcerr.KindNotFound, mcerr.KindOf(wrapped))
	assert.True(t, mcerr.Is(wrapped, mcerr.KindNotFound))
	assert.ErrorIs(t, wrapped, inner)
}

func TestWrapfWrapsThroughFmt(t *testing.T) {
	inner := mcerr.Precondition("nothing playing")
	wrapped := fmt.Errorf("skip: %w", inner)

	assert.True(t, mcerr.Is(wrapped, mcerr.KindPrecondition))
}

func TestErrorMessage(t *testing.T) {
	err := mcerr.External("search provider unreachable", stderrors.New("timeout"))
	assert.Equal(t, "search provider unreachable: timeout", err.Error())

	bare := mcerr.Validation("invalid position")
	assert.Equal(t, "invalid position", bare.Error())
}

func TestWithMeta(t *testing.T) {
	err := mcerr.Precondition("not in voice").WithMeta("guild_id", "g1")
	assert.Equal(t, "g1", err.Meta["guild_id"])
}
