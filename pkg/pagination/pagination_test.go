package pagination

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func parseFor(t *testing.T, query string) Params {
	t.Helper()
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest(http.MethodGet, "/"+query, nil)
	return Parse(c)
}

func TestParseDefaults(t *testing.T) {
	p := parseFor(t, "")
	if p.Page != DefaultPage || p.Limit != DefaultLimit || p.Offset != 0 {
		t.Errorf("Parse() = %+v, want defaults", p)
	}
}

func TestParseClampsOutOfRangeValues(t *testing.T) {
	p := parseFor(t, "?page=0&limit=500")
	if p.Page != DefaultPage {
		t.Errorf("page = %d, want %d", p.Page, DefaultPage)
	}
	if p.Limit != MaxLimit {
		t.Errorf("limit = %d, want %d", p.Limit, MaxLimit)
	}

	p = parseFor(t, "?page=3&limit=10")
	if p.Offset != 20 {
		t.Errorf("offset = %d, want 20", p.Offset)
	}
}

func TestMetaTotalPages(t *testing.T) {
	p := Params{Page: 2, Limit: 10}

	meta := p.Meta(25)
	if meta.TotalPages != 3 {
		t.Errorf("total pages = %d, want 3", meta.TotalPages)
	}
	if meta.Total != 25 || meta.Page != 2 || meta.Limit != 10 {
		t.Errorf("meta = %+v", meta)
	}

	if empty := p.Meta(0); empty.TotalPages != 0 {
		t.Errorf("total pages for empty list = %d, want 0", empty.TotalPages)
	}
}
