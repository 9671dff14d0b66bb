package collinsword_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/heartmarshall/dictimport/internal/adapter/postgres"
	"github.com/heartmarshall/dictimport/internal/adapter/postgres/collinsword"
	"github.com/heartmarshall/dictimport/internal/adapter/postgres/testhelper"
	"github.com/heartmarshall/dictimport/internal/domain"
)

func newRepo(t *testing.T) *collinsword.Repo {
	t.Helper()
	pool := testhelper.SetupTestDB(t)
	return collinsword.New(pool, postgres.NewTxManager(pool))
}

func makeWord(t *testing.T, key string) domain.CollinsWord {
	t.Helper()
	rec := domain.CollinsRecord{
		Word:       key,
		PhoneticUK: "əˈbændən",
		Frequency:  3,
		Forms:      []string{},
		Definitions: []domain.CollinsDefinition{{
			Num:      "1",
			POS:      "VERB",
			CN:       "离弃",
			EN:       "If you abandon a place, you leave it.",
			Examples: []domain.CollinsExample{{EN: "He abandoned his car.", CN: "他弃车而去。"}},
			Synonyms: []string{},
		}},
	}
	w, err := domain.NewCollinsWord(key, rec, time.Now().UTC().Truncate(time.Microsecond))
	if err != nil {
		t.Fatalf("NewCollinsWord: %v", err)
	}
	return w
}

func TestRepo_BulkInsert_RoundTrip(t *testing.T) {
	t.Parallel()
	repo := newRepo(t)
	ctx := context.Background()

	key := testhelper.UniqueWord("abandon")
	link := domain.NewCollinsLink(testhelper.UniqueWord("abandoned"), key, time.Now().UTC())

	inserted, err := repo.BulkInsert(ctx, []domain.CollinsWord{makeWord(t, key), link})
	if err != nil {
		t.Fatalf("BulkInsert: %v", err)
	}
	if inserted != 2 {
		t.Fatalf("expected 2 inserted, got %d", inserted)
	}

	got, err := repo.GetByWord(ctx, key)
	if err != nil {
		t.Fatalf("GetByWord: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected 1 row, got %d", len(got))
	}
	if got[0].IsLink || got[0].LinkTarget != nil {
		t.Errorf("parsed entry stored as link: %+v", got[0])
	}

	rec, err := got[0].Record()
	if err != nil {
		t.Fatalf("Record: %v", err)
	}
	if rec.Word != key || rec.Frequency != 3 {
		t.Errorf("record = %+v", rec)
	}
	if len(rec.Definitions) != 1 || rec.Definitions[0].CN != "离弃" || len(rec.Definitions[0].Examples) != 1 {
		t.Errorf("definitions = %+v", rec.Definitions)
	}

	links, err := repo.GetByWord(ctx, link.Word)
	if err != nil {
		t.Fatalf("GetByWord link: %v", err)
	}
	if len(links) != 1 || !links[0].IsLink || links[0].LinkTarget == nil || *links[0].LinkTarget != key {
		t.Fatalf("link row = %+v", links)
	}
	if string(links[0].Content) != "{}" {
		t.Errorf("link content = %s, want {}", links[0].Content)
	}
}

func TestRepo_BulkInsert_Empty(t *testing.T) {
	t.Parallel()
	repo := newRepo(t)

	inserted, err := repo.BulkInsert(context.Background(), nil)
	if err != nil {
		t.Fatalf("BulkInsert empty: %v", err)
	}
	if inserted != 0 {
		t.Errorf("expected 0, got %d", inserted)
	}
}

func TestRepo_BulkInsert_SkipsExistingID(t *testing.T) {
	t.Parallel()
	repo := newRepo(t)
	ctx := context.Background()

	w := makeWord(t, testhelper.UniqueWord("idem"))
	if _, err := repo.BulkInsert(ctx, []domain.CollinsWord{w}); err != nil {
		t.Fatalf("first insert: %v", err)
	}

	inserted, err := repo.BulkInsert(ctx, []domain.CollinsWord{w})
	if err != nil {
		t.Fatalf("second insert: %v", err)
	}
	if inserted != 0 {
		t.Errorf("expected 0 inserted on replay, got %d", inserted)
	}
}

func TestRepo_BulkInsert_Homographs(t *testing.T) {
	t.Parallel()
	repo := newRepo(t)
	ctx := context.Background()

	key := testhelper.UniqueWord("bank")
	first, second := makeWord(t, key), makeWord(t, key)

	if _, err := repo.BulkInsert(ctx, []domain.CollinsWord{first, second}); err != nil {
		t.Fatalf("BulkInsert: %v", err)
	}

	got, err := repo.GetByWord(ctx, key)
	if err != nil {
		t.Fatalf("GetByWord: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(got))
	}
	if got[0].ID != first.ID || got[1].ID != second.ID {
		t.Errorf("rows not returned in import order")
	}
}

func TestRepo_BulkInsert_RollsBackWholeBatch(t *testing.T) {
	t.Parallel()
	repo := newRepo(t)
	ctx := context.Background()

	good := makeWord(t, testhelper.UniqueWord("good"))
	bad := domain.NewCollinsLink(testhelper.UniqueWord("bad"), "x", time.Now().UTC())
	bad.LinkTarget = nil // violates the link target check

	_, err := repo.BulkInsert(ctx, []domain.CollinsWord{good, bad})
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code != "23514" {
		t.Errorf("unexpected pg code %s", pgErr.Code)
	}

	got, err := repo.GetByWord(ctx, good.Word)
	if err != nil {
		t.Fatalf("GetByWord: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("expected batch to be rolled back, found %d rows", len(got))
	}
}

func TestRepo_GetByWord_Missing(t *testing.T) {
	t.Parallel()
	repo := newRepo(t)

	got, err := repo.GetByWord(context.Background(), testhelper.UniqueWord("missing"))
	if err != nil {
		t.Fatalf("GetByWord: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("expected no rows, got %d", len(got))
	}
}

func TestRepo_GetByNormalized(t *testing.T) {
	t.Parallel()
	repo := newRepo(t)
	ctx := context.Background()

	key := testhelper.UniqueWord("Ice Cream")
	if _, err := repo.BulkInsert(ctx, []domain.CollinsWord{makeWord(t, key)}); err != nil {
		t.Fatalf("BulkInsert: %v", err)
	}

	got, err := repo.GetByNormalized(ctx, "  "+domain.NormalizeText(key)+" ")
	if err != nil {
		t.Fatalf("GetByNormalized: %v", err)
	}
	if len(got) != 1 || got[0].Word != key {
		t.Fatalf("GetByNormalized = %+v", got)
	}
}

// TestRepo_CountAndDeleteAll is not parallel: it empties the shared table.
func TestRepo_CountAndDeleteAll(t *testing.T) {
	repo := newRepo(t)
	ctx := context.Background()

	if _, err := repo.DeleteAll(ctx); err != nil {
		t.Fatalf("DeleteAll: %v", err)
	}

	rows := []domain.CollinsWord{
		makeWord(t, testhelper.UniqueWord("count")),
		makeWord(t, testhelper.UniqueWord("count")),
		domain.NewCollinsLink(testhelper.UniqueWord("count-link"), "count", time.Now().UTC()),
	}
	if _, err := repo.BulkInsert(ctx, rows); err != nil {
		t.Fatalf("BulkInsert: %v", err)
	}

	yes, no := true, false
	for _, tc := range []struct {
		name   string
		isLink *bool
		want   int
	}{
		{"all", nil, 3},
		{"links", &yes, 1},
		{"entries", &no, 2},
	} {
		got, err := repo.Count(ctx, tc.isLink)
		if err != nil {
			t.Fatalf("Count(%s): %v", tc.name, err)
		}
		if got != tc.want {
			t.Errorf("Count(%s) = %d, want %d", tc.name, got, tc.want)
		}
	}

	deleted, err := repo.DeleteAll(ctx)
	if err != nil {
		t.Fatalf("DeleteAll: %v", err)
	}
	if deleted != 3 {
		t.Errorf("DeleteAll removed %d rows, want 3", deleted)
	}
	if n, _ := repo.Count(ctx, nil); n != 0 {
		t.Errorf("Count after DeleteAll = %d, want 0", n)
	}
}
