package result

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/phrazzld/downbeat/internal/domain"
)

func TestSuccessNormalizesResult(t *testing.T) {
	rec := Success("t:1", domain.NewAlbumResult("Burial", "Untrue", 13))

	assert.Equal(t, "t:1", rec.TaskID)
	assert.Equal(t, OutcomeSuccess, rec.Outcome)
	assert.Equal(t, "album", rec.Kind)
	assert.Equal(t, map[string]any{
		"artist":      "Burial",
		"title":       "Untrue",
		"track_count": 13,
	}, rec.Fields)
	assert.Empty(t, rec.ErrorDetail)
}

func TestSuccessArtistUsesNameField(t *testing.T) {
	rec := Success("t:1", domain.NewArtistResult("Autechre"))

	assert.Equal(t, "artist", rec.Kind)
	assert.Equal(t, map[string]any{"name": "Autechre"}, rec.Fields)
}

func TestFailureCarriesErrorDetail(t *testing.T) {
	rec := Failure("t:1", errors.New("album not found"))

	assert.Equal(t, OutcomeFailure, rec.Outcome)
	assert.Equal(t, "album not found", rec.ErrorDetail)
	assert.Empty(t, rec.Kind)
	assert.Empty(t, rec.Fields)
}

func TestFailureNilError(t *testing.T) {
	rec := Failure("t:1", nil)

	assert.Equal(t, OutcomeFailure, rec.Outcome)
	assert.Empty(t, rec.ErrorDetail)
}
