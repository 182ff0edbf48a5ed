package vectorstore

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/bson"
)

func decodeHit(t *testing.T, doc bson.D) mongoHit {
	t.Helper()
	raw, err := bson.Marshal(doc)
	require.NoError(t, err)

	var h mongoHit
	require.NoError(t, bson.Unmarshal(raw, &h))
	return h
}

func TestMongoHit_ObjectID(t *testing.T) {
	oid := bson.NewObjectID()

	h := decodeHit(t, bson.D{
		{Key: "_id", Value: oid},
		{Key: "english_text", Value: "The lessee shall pay rent."},
		{Key: "telugu_text", Value: "కౌలుదారు అద్దె చెల్లించవలెను."},
		{Key: "score", Value: 0.91},
	})
	p := h.pair()

	assert.Equal(t, oid.Hex(), p.ID)
	assert.Equal(t, "The lessee shall pay rent.", p.SourceText)
	assert.Equal(t, "కౌలుదారు అద్దె చెల్లించవలెను.", p.TargetText)
	assert.InDelta(t, 0.91, p.Score, 1e-6)
}

func TestMongoHit_StringID(t *testing.T) {
	h := decodeHit(t, bson.D{
		{Key: "_id", Value: "3f1c2b7e-0000-4000-8000-000000000001"},
		{Key: "english_text", Value: "This clause is void."},
		{Key: "telugu_text", Value: "ఈ నిబంధన చెల్లదు."},
		{Key: "score", Value: 0.5},
	})

	assert.Equal(t, "3f1c2b7e-0000-4000-8000-000000000001", h.pair().ID)
}

func TestMongoHit_NoID(t *testing.T) {
	h := decodeHit(t, bson.D{
		{Key: "english_text", Value: "This clause is void."},
		{Key: "telugu_text", Value: "ఈ నిబంధన చెల్లదు."},
	})

	p := h.pair()
	assert.Empty(t, p.ID)
	assert.Equal(t, "This clause is void.", p.SourceText)
	assert.Zero(t, p.Score)
}

func TestMongoHit_IntegerID(t *testing.T) {
	h := decodeHit(t, bson.D{
		{Key: "_id", Value: int32(42)},
		{Key: "english_text", Value: "Rent is due monthly."},
		{Key: "telugu_text", Value: "అద్దె ప్రతి నెల చెల్లించాలి."},
	})

	assert.Equal(t, "42", h.pair().ID)
}
