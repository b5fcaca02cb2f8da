package index

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/memgraft/memgraft/internal/pkg/logger"
)

func TestSelect_LexicalChoice(t *testing.T) {
	b := Select(ChoiceLexical, nil, logger.Default())
	if _, ok := b.(*Lexical); !ok {
		t.Fatalf("Select(lexical) returned %T, want *Lexical", b)
	}
}

func TestSelect_VectorWithProvider(t *testing.T) {
	b := Select(ChoiceVector, &bagProvider{dim: 32}, logger.Default())
	if _, ok := b.(*Vector); !ok {
		t.Fatalf("Select(vector, reachable) returned %T, want *Vector", b)
	}
}

func TestSelect_VectorNoProviderFallsBack(t *testing.T) {
	var buf bytes.Buffer
	log := logger.NewWithWriter(&buf, "warn", "text")

	b := Select(ChoiceVector, nil, log)
	if _, ok := b.(*Lexical); !ok {
		t.Fatalf("Select(vector, nil provider) returned %T, want *Lexical", b)
	}
	if !strings.Contains(buf.String(), "falling back") {
		t.Error("fallback was not logged")
	}
}

func TestSelect_VectorUnreachableFallsBack(t *testing.T) {
	var buf bytes.Buffer
	log := logger.NewWithWriter(&buf, "warn", "text")

	b := Select(ChoiceVector, &bagProvider{dim: 32, failed: true}, log)
	if _, ok := b.(*Lexical); !ok {
		t.Fatalf("Select(vector, unreachable) returned %T, want *Lexical", b)
	}
	if !strings.Contains(buf.String(), "falling back") {
		t.Error("fallback was not logged")
	}
}

func TestSelect_FallbackStillRetrieves(t *testing.T) {
	b := Select(ChoiceVector, nil, logger.Default())
	if err := b.Build(context.Background(), ciRecords()); err != nil {
		t.Fatal(err)
	}

	hits, err := b.Query(context.Background(), "fix failing CI pipeline tests", 3)
	if err != nil {
		t.Fatal(err)
	}
	if len(hits) == 0 {
		t.Fatal("fallback backend returned no hits")
	}
	if b.Stats().Backend != "lexical" {
		t.Errorf("Stats().Backend = %s, want lexical", b.Stats().Backend)
	}
}
