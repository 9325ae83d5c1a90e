package catalog

import (
	"context"
	"strings"
	"testing"

	"go.uber.org/zap/zaptest"

	"github.com/wras-dhh/server/domain/entities"
	"github.com/wras-dhh/server/domain/repositories"
)

// memoryCatalog implements repositories.CatalogRepository over a slice.
type memoryCatalog struct {
	clips []*entities.CatalogClip
}

func (m *memoryCatalog) FindExact(_ context.Context, q repositories.ClipQuery) (*entities.CatalogClip, error) {
	want := normalize(q.Text)
	for _, c := range m.clips {
		if !c.Active || c.TemplateID != q.TemplateID || c.AudioFor(q.AudioLanguage) == "" {
			continue
		}
		if normalize(c.TextFor(q.MatchLanguage)) == want {
			return c, nil
		}
	}
	return nil, nil
}

func (m *memoryCatalog) FindContains(_ context.Context, q repositories.ClipQuery) ([]*entities.CatalogClip, error) {
	want := normalize(q.Text)
	var out []*entities.CatalogClip
	for _, c := range m.clips {
		if !c.Active || c.TemplateID != q.TemplateID || c.AudioFor(q.AudioLanguage) == "" {
			continue
		}
		if strings.Contains(normalize(c.TextFor(q.MatchLanguage)), want) {
			out = append(out, c)
		}
	}
	return out, nil
}

func (m *memoryCatalog) CountByTemplate(_ context.Context, templateID string) (int64, error) {
	var n int64
	for _, c := range m.clips {
		if c.Active && c.TemplateID == templateID {
			n++
		}
	}
	return n, nil
}

func (m *memoryCatalog) DeactivateByTemplate(_ context.Context, templateID string) (int64, error) {
	var n int64
	for _, c := range m.clips {
		if c.Active && c.TemplateID == templateID {
			c.Active = false
			n++
		}
	}
	return n, nil
}

func (m *memoryCatalog) Insert(_ context.Context, clip *entities.CatalogClip) error {
	m.clips = append(m.clips, clip)
	return nil
}

func (m *memoryCatalog) Update(_ context.Context, _ *entities.CatalogClip) error {
	return nil
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func englishClip(text, audioPath string) *entities.CatalogClip {
	clip := entities.NewCatalogClip(text)
	clip.SetAudio(entities.LanguageEnglish, audioPath)
	return clip
}

func TestResolveDigitsAllOrNothing(t *testing.T) {
	repo := &memoryCatalog{clips: []*entities.CatalogClip{
		englishClip("one", "/audio_files/one.mp3"),
		englishClip("two", "/audio_files/two.mp3"),
		englishClip("five", "/audio_files/five.mp3"),
	}}
	r := NewResolver(repo, zaptest.NewLogger(t))

	// Every digit resolves: exactly one reference per digit, in order.
	paths, err := r.ResolvePlaceholder(context.Background(), "train_number", "12", entities.LanguageEnglish)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []string{"/audio_files/one.mp3", "/audio_files/two.mp3"}
	if len(paths) != len(want) {
		t.Fatalf("expected %d paths, got %d: %v", len(want), len(paths), paths)
	}
	for i := range want {
		if paths[i] != want[i] {
			t.Errorf("path %d: expected %s, got %s", i, want[i], paths[i])
		}
	}

	// One missing digit word ("three") fails the whole value — never a
	// partial digit list.
	paths, err = r.ResolvePlaceholder(context.Background(), "platform_number", "13", entities.LanguageEnglish)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if paths != nil {
		t.Errorf("expected not-found for partially resolvable digits, got %v", paths)
	}
}

func TestResolvePlaceholderExactBeforeDecomposition(t *testing.T) {
	repo := &memoryCatalog{clips: []*entities.CatalogClip{
		englishClip("Rajdhani Express", "/audio_files/rajdhani_express.mp3"),
		englishClip("Rajdhani", "/audio_files/rajdhani.mp3"),
		englishClip("Express", "/audio_files/express.mp3"),
	}}
	r := NewResolver(repo, zaptest.NewLogger(t))

	paths, err := r.ResolvePlaceholder(context.Background(), "train_name", "Rajdhani Express", entities.LanguageEnglish)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(paths) != 1 || paths[0] != "/audio_files/rajdhani_express.mp3" {
		t.Errorf("expected whole-name match, got %v", paths)
	}
}

func TestResolveTrainNameWordByWordPartial(t *testing.T) {
	repo := &memoryCatalog{clips: []*entities.CatalogClip{
		englishClip("Rajdhani", "/audio_files/rajdhani.mp3"),
	}}
	r := NewResolver(repo, zaptest.NewLogger(t))

	// "Express" is missing; the resolved subset is accepted.
	paths, err := r.ResolvePlaceholder(context.Background(), "train_name", "Rajdhani Express", entities.LanguageEnglish)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(paths) != 1 || paths[0] != "/audio_files/rajdhani.mp3" {
		t.Errorf("expected partial word result, got %v", paths)
	}
}

func TestResolveStationPartialMatchRanked(t *testing.T) {
	repo := &memoryCatalog{clips: []*entities.CatalogClip{
		englishClip("Vapi Junction Railway Station", "/audio_files/vapi_junction_long.mp3"),
		englishClip("Vapi Junction", "/audio_files/vapi_junction.mp3"),
	}}
	r := NewResolver(repo, zaptest.NewLogger(t))

	// Both candidates contain "Vapi"; the closer (shorter) one wins.
	paths, err := r.ResolvePlaceholder(context.Background(), "start_station_name", "Vapi", entities.LanguageEnglish)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(paths) != 1 || paths[0] != "/audio_files/vapi_junction.mp3" {
		t.Errorf("expected closest partial match, got %v", paths)
	}
}

func TestResolveLiteralScopePrecedence(t *testing.T) {
	scoped := entities.NewCatalogClip("arriving at platform")
	scoped.TemplateID = "tpl-1"
	scoped.SetAudio(entities.LanguageEnglish, "/audio_files/segments/arriving.mp3")

	general := englishClip("arriving at platform", "/audio_files/general/arriving.mp3")

	repo := &memoryCatalog{clips: []*entities.CatalogClip{general, scoped}}
	r := NewResolver(repo, zaptest.NewLogger(t))

	// Template-scoped harvested segments win over the general catalog.
	paths, err := r.ResolveLiteral(context.Background(), "arriving at platform", entities.LanguageEnglish, "tpl-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(paths) != 1 || paths[0] != "/audio_files/segments/arriving.mp3" {
		t.Errorf("expected template-scoped clip, got %v", paths)
	}

	// Without a scope, only the general catalog is consulted.
	paths, err = r.ResolveLiteral(context.Background(), "arriving at platform", entities.LanguageEnglish, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(paths) != 1 || paths[0] != "/audio_files/general/arriving.mp3" {
		t.Errorf("expected general clip, got %v", paths)
	}
}

func TestResolveLiteralMissIsNotError(t *testing.T) {
	r := NewResolver(&memoryCatalog{}, zaptest.NewLogger(t))
	paths, err := r.ResolveLiteral(context.Background(), "unknown phrase", entities.LanguageHindi, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if paths != nil {
		t.Errorf("expected nil for a resolution miss, got %v", paths)
	}
}

func TestResolveEmptyInputs(t *testing.T) {
	r := NewResolver(&memoryCatalog{}, zaptest.NewLogger(t))
	if paths, _ := r.ResolveLiteral(context.Background(), "   ", entities.LanguageEnglish, ""); paths != nil {
		t.Errorf("expected nil for blank literal, got %v", paths)
	}
	if paths, _ := r.ResolvePlaceholder(context.Background(), "train_number", "", entities.LanguageEnglish); paths != nil {
		t.Errorf("expected nil for empty value, got %v", paths)
	}
}
