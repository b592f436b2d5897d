package summeval

import (
	"github.com/datar-psa/summeval/api"
)

type Score = api.Score
type ScoreInputs = api.ScoreInputs
type Scorer = api.Scorer

type Embedder = api.Embedder
type BatchEmbedder = api.BatchEmbedder
type Lemmatizer = api.Lemmatizer
type Preparer = api.Preparer
