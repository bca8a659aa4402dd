package pagination

import (
	"math"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
)

func paramsFor(query string) Params {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/patient-info"+query, nil)
	rec := httptest.NewRecorder()
	return FromContext(e.NewContext(req, rec))
}

func TestFromContext_Defaults(t *testing.T) {
	p := paramsFor("")
	if p.Limit != DefaultLimit {
		t.Errorf("expected default limit %d, got %d", DefaultLimit, p.Limit)
	}
	if p.Offset != 0 {
		t.Errorf("expected default offset 0, got %d", p.Offset)
	}
}

func TestFromContext_Values(t *testing.T) {
	tests := []struct {
		query      string
		wantLimit  int
		wantOffset int
	}{
		{"?limit=10&offset=30", 10, 30},
		{"?limit=500", MaxLimit, 0},
		{"?limit=-1&offset=-5", DefaultLimit, 0},
		{"?limit=abc&offset=xyz", DefaultLimit, 0},
		{"?offset=99999999999999999999999", DefaultLimit, 0},
	}

	for _, tt := range tests {
		p := paramsFor(tt.query)
		if p.Limit != tt.wantLimit || p.Offset != tt.wantOffset {
			t.Errorf("%s: got limit=%d offset=%d, want limit=%d offset=%d",
				tt.query, p.Limit, p.Offset, tt.wantLimit, tt.wantOffset)
		}
	}
}

func TestNewPage_Links(t *testing.T) {
	page := NewPage(Params{Limit: 10, Offset: 10}, 35, "/patient-info")

	if !page.HasMore {
		t.Error("expected more results")
	}
	if page.Next != "/patient-info?offset=20&limit=10" {
		t.Errorf("unexpected next link %q", page.Next)
	}
	if page.Previous != "/patient-info?offset=0&limit=10" {
		t.Errorf("unexpected previous link %q", page.Previous)
	}
}

func TestNewPage_FirstAndLast(t *testing.T) {
	first := NewPage(Params{Limit: 20, Offset: 0}, 5, "/patient-info")
	if first.HasMore || first.Next != "" || first.Previous != "" {
		t.Errorf("single page should have no links: %+v", first)
	}

	last := NewPage(Params{Limit: 20, Offset: 40}, 50, "/patient-info")
	if last.HasMore || last.Next != "" {
		t.Errorf("last page should have no next link: %+v", last)
	}
	if last.Previous != "/patient-info?offset=20&limit=20" {
		t.Errorf("unexpected previous link %q", last.Previous)
	}
}

func TestPreviousOffset_NeverNegative(t *testing.T) {
	p := Params{Limit: 20, Offset: 5}
	if got := p.PreviousOffset(); got != 0 {
		t.Errorf("expected 0, got %d", got)
	}
}

func TestNewPage_HugeOffset(t *testing.T) {
	page := NewPage(paramsFor("?offset=99999999999999999999999"), 45, "/patient-info")
	if page.Offset != 0 {
		t.Errorf("expected offset 0, got %d", page.Offset)
	}
	if !page.HasMore || page.Next != "/patient-info?offset=20&limit=20" {
		t.Errorf("unexpected next link %q (has_more=%v)", page.Next, page.HasMore)
	}

	p := Params{Limit: MaxLimit, Offset: math.MaxInt - 1}
	page = NewPage(p, 45, "/patient-info")
	if page.HasMore || page.Next != "" {
		t.Errorf("expected no next page past the end, got %q", page.Next)
	}
}
