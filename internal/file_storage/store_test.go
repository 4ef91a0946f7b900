package filestorage

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/minio/minio-go/v7"
)

type newStore func(t *testing.T) Store

func runStoreConformance(t *testing.T, newStore newStore) {
	t.Helper()
	ctx := context.Background()
	key := RevisionPDFKey("c0ffee", 1)

	t.Run("PutGetRoundTrip", func(t *testing.T) {
		s := newStore(t)
		want := []byte("%PDF-1.7 revision one")

		if err := s.Put(ctx, key, want, Meta{ContentType: "application/pdf"}); err != nil {
			t.Fatalf("Put: %v", err)
		}
		got, err := s.Get(ctx, key)
		if err != nil {
			t.Fatalf("Get: %v", err)
		}
		if !bytes.Equal(got, want) {
			t.Fatalf("Get bytes mismatch")
		}
	})

	t.Run("PutOverwrites", func(t *testing.T) {
		s := newStore(t)
		if err := s.Put(ctx, key, []byte("first"), Meta{}); err != nil {
			t.Fatalf("Put(1): %v", err)
		}
		if err := s.Put(ctx, key, []byte("second"), Meta{}); err != nil {
			t.Fatalf("Put(2): %v", err)
		}
		got, err := s.Get(ctx, key)
		if err != nil {
			t.Fatalf("Get: %v", err)
		}
		if string(got) != "second" {
			t.Fatalf("Get = %q, want last write", got)
		}
	})

	t.Run("MissingIsNotFound", func(t *testing.T) {
		s := newStore(t)
		_, err := s.Get(ctx, RevisionPDFKey("missing", 7))
		if !IsNotFound(err) {
			t.Fatalf("Get missing: err=%v, want ErrNotFound", err)
		}
		if IsUnavailable(err) {
			t.Fatalf("missing object must not look like an outage")
		}
	})

	t.Run("DeleteThenNotFound", func(t *testing.T) {
		s := newStore(t)
		if err := s.Put(ctx, key, []byte("bytes"), Meta{}); err != nil {
			t.Fatalf("Put: %v", err)
		}
		if err := s.Delete(ctx, key); err != nil {
			t.Fatalf("Delete: %v", err)
		}
		if _, err := s.Get(ctx, key); !IsNotFound(err) {
			t.Fatalf("Get after Delete: err=%v, want ErrNotFound", err)
		}
	})

	t.Run("ReturnedBytesAreCopies", func(t *testing.T) {
		s := newStore(t)
		src := []byte("immutable")
		if err := s.Put(ctx, key, src, Meta{}); err != nil {
			t.Fatalf("Put: %v", err)
		}
		src[0] = 'X'
		got, _ := s.Get(ctx, key)
		got[1] = 'Y'
		again, _ := s.Get(ctx, key)
		if string(again) != "immutable" {
			t.Fatalf("stored bytes were aliased: %q", again)
		}
	})

	t.Run("RejectsTraversal", func(t *testing.T) {
		s := newStore(t)
		for _, k := range []string{"", "/abs", "../escape", "certs/../../x", "a//b"} {
			if err := s.Put(ctx, k, []byte("x"), Meta{}); !errors.Is(err, ErrInvalidKey) {
				t.Errorf("Put(%q) err=%v, want ErrInvalidKey", k, err)
			}
		}
	})

	t.Run("ConcurrentPutsLastWriterWins", func(t *testing.T) {
		s := newStore(t)
		var wg sync.WaitGroup
		for i := 0; i < 8; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				if err := s.Put(ctx, key, []byte("same rendering"), Meta{}); err != nil {
					t.Errorf("Put: %v", err)
				}
			}()
		}
		wg.Wait()
		got, err := s.Get(ctx, key)
		if err != nil || string(got) != "same rendering" {
			t.Fatalf("Get = %q, %v", got, err)
		}
	})
}

func TestMemoryStoreConformance(t *testing.T) {
	runStoreConformance(t, func(t *testing.T) Store { return NewMemoryStore() })
}

func TestLocalStoreConformance(t *testing.T) {
	runStoreConformance(t, func(t *testing.T) Store {
		s, err := NewLocalStore(t.TempDir())
		if err != nil {
			t.Fatalf("NewLocalStore: %v", err)
		}
		return s
	})
}

func TestMemoryStoreUnavailable(t *testing.T) {
	s := NewMemoryStore()
	s.SetUnavailable(true)

	_, err := s.Get(context.Background(), "certs/x/revisions/1.pdf")
	if !IsUnavailable(err) {
		t.Fatalf("Get while down: err=%v, want ErrUnavailable", err)
	}
	if IsNotFound(err) {
		t.Fatalf("outage must not look like a missing object")
	}
}

func TestMemoryStoreKeepsMeta(t *testing.T) {
	s := NewMemoryStore()
	key := RevisionPDFKey("abc", 2)
	if err := s.Put(context.Background(), key, []byte("pdf"), Meta{ContentType: "application/pdf", CID: "bafk"}); err != nil {
		t.Fatalf("Put: %v", err)
	}
	meta, ok := s.Meta(key)
	if !ok || meta.CID != "bafk" || meta.ContentType != "application/pdf" {
		t.Fatalf("Meta = %+v, %v", meta, ok)
	}
}

func TestRevisionPDFKey(t *testing.T) {
	if got := RevisionPDFKey("9b2f", 3); got != "certs/9b2f/revisions/3.pdf" {
		t.Fatalf("RevisionPDFKey = %s", got)
	}
}

func TestMapMinioError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want error
	}{
		{"no such key", minio.ErrorResponse{Code: "NoSuchKey", StatusCode: 404}, ErrNotFound},
		{"access denied", minio.ErrorResponse{Code: "AccessDenied", StatusCode: 403}, nil},
		{"network", errors.New("dial tcp: connection refused"), nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := mapMinioError(tt.err); got != tt.want {
				t.Fatalf("mapMinioError() = %v, want %v", got, tt.want)
			}
		})
	}
}
