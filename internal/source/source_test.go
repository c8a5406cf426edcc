// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package source

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/korean"
	"golang.org/x/text/unicode/norm"

	"github.com/pdiddy/book-metasearch/internal/normalize"
	"github.com/pdiddy/book-metasearch/pkg/types"
)

func testRemote(ts *httptest.Server) Remote {
	return Remote{
		Client: ts.Client(),
		Config: types.HTTPConfig{Timeout: 2 * time.Second, UserAgent: "test/0.1"},
	}
}

// xmlServer serves body for every request and records the last query.
func xmlServer(t *testing.T, body string, calls *int32, last *url.Values) *httptest.Server {
	t.Helper()
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls != nil {
			atomic.AddInt32(calls, 1)
		}
		if last != nil {
			*last = r.URL.Query()
		}
		w.Header().Set("Content-Type", "text/xml; charset=utf-8")
		w.Write([]byte(body))
	}))
	t.Cleanup(ts.Close)
	return ts
}

func withBase(t *testing.T, base *string, u string) {
	t.Helper()
	old := *base
	*base = u
	t.Cleanup(func() { *base = old })
}

// --- National Library of Korea ---

const nlkResponse = `<?xml version="1.0" encoding="UTF-8"?>
<root>
  <paramData>
    <kwd>딥러닝</kwd>
    <pageNum>1</pageNum>
    <pageSize>10</pageSize>
    <total>57</total>
  </paramData>
  <result>
    <item>
      <title_info>딥러닝 입문</title_info>
      <author_info>홍길동 지음</author_info>
      <pub_info>한빛미디어</pub_info>
      <pub_year_info>2023</pub_year_info>
      <isbn>9788966262281</isbn>
      <detail_link>/NL/contents/detail.do?id=KMO1</detail_link>
      <type_name>도서</type_name>
    </item>
    <item>
      <title_info>딥러닝 실전</title_info>
      <control_no>KMO2</control_no>
    </item>
  </result>
</root>`

func TestNLKSearch(t *testing.T) {
	var q url.Values
	ts := xmlServer(t, nlkResponse, nil, &q)
	withBase(t, &nlkAPIBase, ts.URL)

	a := &NLKAdapter{Remote: testRemote(ts), APIKey: "k"}
	page, err := a.Search(context.Background(), " 딥러닝 ", 2, 10)
	require.NoError(t, err)

	assert.Equal(t, "k", q.Get("key"))
	assert.Equal(t, "xml", q.Get("apiType"))
	assert.Equal(t, "딥러닝", q.Get("kwd"))
	assert.Equal(t, "2", q.Get("pageNum"))
	assert.Equal(t, "10", q.Get("pageSize"))
	assert.Equal(t, "도서", q.Get("category"))

	assert.Equal(t, 57, page.Total)
	require.Len(t, page.Records, 2)

	first := page.Records[0]
	assert.Equal(t, NameNLK, first.Source)
	assert.Equal(t, "딥러닝 입문", first.Title)
	assert.Equal(t, "홍길동 지음", first.Author)
	assert.Equal(t, "한빛미디어", first.Publisher)
	assert.Equal(t, "2023", first.PublicationDate)
	assert.Equal(t, "9788966262281", first.Identifier)
	assert.Equal(t, "https://www.nl.go.kr/NL/contents/detail.do?id=KMO1", first.DetailURL)
	assert.Equal(t, "도서", first.Extra["type"])

	second := page.Records[1]
	assert.Equal(t, types.UnknownValue, second.Author)
	assert.Equal(t, "https://www.nl.go.kr/NL/contents/search.do?viewKey=KMO2&viewType=AH1", second.DetailURL)
}

func TestNLKNotConfigured(t *testing.T) {
	var calls int32
	ts := xmlServer(t, nlkResponse, &calls, nil)
	withBase(t, &nlkAPIBase, ts.URL)

	a := &NLKAdapter{Remote: testRemote(ts)}
	page, err := a.Search(context.Background(), "딥러닝", 1, 10)
	assert.ErrorIs(t, err, ErrNotConfigured)
	assert.Empty(t, page.Records)
	assert.Zero(t, page.Total)
	assert.Zero(t, atomic.LoadInt32(&calls))
}

func TestNLKLinkOverride(t *testing.T) {
	ts := xmlServer(t, nlkResponse, nil, nil)
	withBase(t, &nlkAPIBase, ts.URL)

	a := &NLKAdapter{
		Remote: testRemote(ts),
		APIKey: "k",
		Links:  normalize.LinkTemplates{ByControl: "https://mirror.example/{q}"},
	}
	page, err := a.Search(context.Background(), "딥러닝", 1, 10)
	require.NoError(t, err)
	require.Len(t, page.Records, 2)
	// Without an origin the root-relative link is kept as-is.
	assert.Equal(t, "/NL/contents/detail.do?id=KMO1", page.Records[0].DetailURL)
	assert.Equal(t, "https://mirror.example/KMO2", page.Records[1].DetailURL)
}

func TestEmptyKeywordSkipsCall(t *testing.T) {
	var calls int32
	ts := xmlServer(t, nlkResponse, &calls, nil)
	withBase(t, &nlkAPIBase, ts.URL)
	withBase(t, &aladinAPIBase, ts.URL)
	withBase(t, &rissAPIBase, ts.URL)

	adapters := []Adapter{
		&NLKAdapter{Remote: testRemote(ts), APIKey: "k"},
		&AladinAdapter{Remote: testRemote(ts), TTBKey: "k"},
		&RISSAdapter{Remote: testRemote(ts), APIKey: "k"},
		&LocalAdapter{Records: []normalize.Raw{{"서명": "딥러닝"}}},
	}
	for _, a := range adapters {
		t.Run(a.Name(), func(t *testing.T) {
			page, err := a.Search(context.Background(), "   ", 1, 10)
			require.NoError(t, err)
			assert.Empty(t, page.Records)
			assert.Zero(t, page.Total)
		})
	}
	assert.Zero(t, atomic.LoadInt32(&calls))
}

// --- Aladin ---

const aladinNamespaced = `<?xml version="1.0" encoding="utf-8"?>
<object xmlns="http://www.aladin.co.kr/ttb/apiguide.aspx">
  <version>20131101</version>
  <totalResults>321</totalResults>
  <startIndex>1</startIndex>
  <itemsPerPage>10</itemsPerPage>
  <item itemId="3030303">
    <title>딥러닝 입문</title>
    <link>http://www.aladin.co.kr/shop/wproduct.aspx?ItemId=3030303&amp;partner=openAPI</link>
    <author>홍길동</author>
    <pubDate>2023-01-10</pubDate>
    <isbn>8966262287</isbn>
    <isbn13>9788966262281</isbn13>
    <cover>https://image.aladin.co.kr/cover.jpg</cover>
    <publisher>한빛미디어</publisher>
    <customerReviewRank>9</customerReviewRank>
  </item>
  <item itemId="4040404">
    <title>딥러닝 수학</title>
  </item>
</object>`

// The root declares a default namespace but the items opt out of it, so the
// qualified lookup finds nothing and the unqualified fallback is needed.
const aladinMixedNamespace = `<?xml version="1.0" encoding="utf-8"?>
<object xmlns="http://www.aladin.co.kr/ttb/apiguide.aspx">
  <totalResults>1</totalResults>
  <item xmlns="" itemId="5050505">
    <title>Go 언어</title>
    <isbn13>9791162243664</isbn13>
  </item>
</object>`

func TestAladinSearchNamespaced(t *testing.T) {
	var q url.Values
	ts := xmlServer(t, aladinNamespaced, nil, &q)
	withBase(t, &aladinAPIBase, ts.URL)

	a := &AladinAdapter{Remote: testRemote(ts), TTBKey: "ttb"}
	page, err := a.Search(context.Background(), "딥러닝", 3, 10)
	require.NoError(t, err)

	assert.Equal(t, "ttb", q.Get("ttbkey"))
	assert.Equal(t, "딥러닝", q.Get("Query"))
	assert.Equal(t, "Title", q.Get("QueryType"))
	assert.Equal(t, "3", q.Get("start"))
	assert.Equal(t, "xml", q.Get("output"))
	assert.Equal(t, "20131101", q.Get("Version"))

	assert.Equal(t, 321, page.Total)
	require.Len(t, page.Records, 2)

	r := page.Records[0]
	assert.Equal(t, "딥러닝 입문", r.Title)
	assert.Equal(t, "9788966262281", r.Identifier)
	assert.Equal(t, "http://www.aladin.co.kr/shop/wproduct.aspx?ItemId=3030303&partner=openAPI", r.DetailURL)
	assert.Equal(t, "9", r.Extra["rating"])
	assert.Equal(t, "https://image.aladin.co.kr/cover.jpg", r.Extra["cover"])

	// No link, no ISBN: falls back to the item id.
	assert.Equal(t, "https://www.aladin.co.kr/shop/wproduct.aspx?ItemId=4040404", page.Records[1].DetailURL)
}

func TestAladinNamespaceFallback(t *testing.T) {
	ts := xmlServer(t, aladinMixedNamespace, nil, nil)
	withBase(t, &aladinAPIBase, ts.URL)

	a := &AladinAdapter{Remote: testRemote(ts), TTBKey: "ttb"}
	page, err := a.Search(context.Background(), "Go", 1, 10)
	require.NoError(t, err)
	assert.Equal(t, 1, page.Total)
	require.Len(t, page.Records, 1)
	assert.Equal(t, "Go 언어", page.Records[0].Title)
	assert.Equal(t, "https://www.aladin.co.kr/shop/wproduct.aspx?ISBN=9791162243664", page.Records[0].DetailURL)
}

func TestAladinClampsPageSize(t *testing.T) {
	var q url.Values
	ts := xmlServer(t, aladinNamespaced, nil, &q)
	withBase(t, &aladinAPIBase, ts.URL)

	a := &AladinAdapter{Remote: testRemote(ts), TTBKey: "ttb"}
	_, err := a.Search(context.Background(), "딥러닝", 1, 500)
	require.NoError(t, err)
	assert.Equal(t, "50", q.Get("MaxResults"))
}

func TestAladinErrorDocument(t *testing.T) {
	body := `<?xml version="1.0" encoding="utf-8"?>
<error xmlns="http://www.aladin.co.kr/ttb/apiguide.aspx">
  <errorCode>1</errorCode>
  <errorMessage>잘못된 TTBKey 입니다.</errorMessage>
</error>`
	ts := xmlServer(t, body, nil, nil)
	withBase(t, &aladinAPIBase, ts.URL)

	a := &AladinAdapter{Remote: testRemote(ts), TTBKey: "bad"}
	page, err := a.Search(context.Background(), "딥러닝", 1, 10)
	assert.ErrorIs(t, err, ErrTransport)
	assert.Contains(t, err.Error(), "잘못된 TTBKey")
	assert.Empty(t, page.Records)
}

// --- RISS ---

const rissResponse = `<?xml version="1.0" encoding="UTF-8"?>
<result>
  <head>
    <totalcount>1234</totalcount>
  </head>
  <metadata>
    <riss.title>딥러닝 기반 추천</riss.title>
    <riss.author>김연구</riss.author>
    <riss.publisher>한국대학교</riss.publisher>
    <riss.pubdate>2021</riss.pubdate>
    <riss.mtype>학위논문</riss.mtype>
    <riss.holdings>중앙도서관</riss.holdings>
    <riss.holdings>공학도서관</riss.holdings>
    <url>http://www.riss.kr/link?id=T1</url>
  </metadata>
  <metadata>
    <riss.title>딥러닝 응용</riss.title>
  </metadata>
  <metadata>
    <riss.title>딥러닝 사례</riss.title>
  </metadata>
</result>`

func TestRISSSearch(t *testing.T) {
	var q url.Values
	ts := xmlServer(t, rissResponse, nil, &q)
	withBase(t, &rissAPIBase, ts.URL)

	a := &RISSAdapter{Remote: testRemote(ts), APIKey: "rk"}
	page, err := a.Search(context.Background(), "딥러닝", 1, 100)
	require.NoError(t, err)

	assert.Equal(t, "rk", q.Get("key"))
	assert.Equal(t, "1.0", q.Get("version"))
	assert.Equal(t, "U", q.Get("type"))
	assert.Equal(t, "100", q.Get("rowcount"))
	assert.Equal(t, "ab", q.Get("stype"))
	assert.Equal(t, "딥러닝", q.Get("keyword"))

	// Declared total is kept even though only three rows came back.
	assert.Equal(t, 1234, page.Total)
	require.Len(t, page.Records, 3)

	r := page.Records[0]
	assert.Equal(t, "딥러닝 기반 추천", r.Title)
	assert.Equal(t, "김연구", r.Author)
	assert.Equal(t, "중앙도서관; 공학도서관", r.Extra["holdings"])
	assert.Equal(t, "학위논문", r.Extra["material_type"])
	assert.Equal(t, "http://www.riss.kr/link?id=T1", r.DetailURL)
	assert.Contains(t, page.Records[1].DetailURL, "https://www.riss.kr/search/Search.do?")
}

func TestRISSPageSlicing(t *testing.T) {
	var q url.Values
	ts := xmlServer(t, rissResponse, nil, &q)
	withBase(t, &rissAPIBase, ts.URL)

	a := &RISSAdapter{Remote: testRemote(ts), APIKey: "rk"}
	page, err := a.Search(context.Background(), "딥러닝", 2, 2)
	require.NoError(t, err)
	assert.Equal(t, "4", q.Get("rowcount"))
	require.Len(t, page.Records, 1)
	assert.Equal(t, "딥러닝 사례", page.Records[0].Title)

	page, err = a.Search(context.Background(), "딥러닝", 60, 10)
	require.NoError(t, err)
	assert.Equal(t, "100", q.Get("rowcount"))
	assert.Empty(t, page.Records)
	assert.Equal(t, 1234, page.Total)
}

func TestRISSProxyBase(t *testing.T) {
	var calls int32
	proxy := xmlServer(t, rissResponse, &calls, nil)
	withBase(t, &rissAPIBase, "http://unreachable.invalid/openApi")

	a := &RISSAdapter{Remote: testRemote(proxy), APIKey: "rk", ProxyBase: proxy.URL + "/"}
	page, err := a.Search(context.Background(), "딥러닝", 1, 10)
	require.NoError(t, err)
	assert.Len(t, page.Records, 3)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
	assert.Equal(t, RISSMaxRows, a.MaxRecords())
}

// --- failure taxonomy ---

func TestSourceFailures(t *testing.T) {
	slow := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	t.Cleanup(slow.Close)

	broken := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	t.Cleanup(broken.Close)

	garbage := xmlServer(t, "<result><metadata>unterminated", nil, nil)

	tests := []struct {
		name string
		ts   *httptest.Server
		want error
	}{
		{"timeout", slow, ErrTimeout},
		{"http 500", broken, ErrTransport},
		{"malformed xml", garbage, ErrParse},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			withBase(t, &rissAPIBase, tt.ts.URL)
			remote := testRemote(tt.ts)
			remote.Config.Timeout = 50 * time.Millisecond

			a := &RISSAdapter{Remote: remote, APIKey: "rk"}
			page, err := a.Search(context.Background(), "딥러닝", 1, 10)
			assert.ErrorIs(t, err, tt.want)
			assert.Empty(t, page.Records)
			assert.Zero(t, page.Total)
		})
	}
}

func TestDecodeItemsEUCKR(t *testing.T) {
	doc := `<?xml version="1.0" encoding="EUC-KR"?><root><total>1</total><item><title_info>딥러닝</title_info></item></root>`
	encoded, err := korean.EUCKR.NewEncoder().String(doc)
	require.NoError(t, err)

	set, err := decodeItems(NameNLK, []byte(encoded), "item", "total")
	require.NoError(t, err)
	assert.Equal(t, 1, set.Total)
	require.Len(t, set.Items, 1)
	assert.Equal(t, "딥러닝", set.Items[0]["title_info"])
}

func TestDecodeItemsEmptyResult(t *testing.T) {
	set, err := decodeItems(NameAladin, []byte(`<object xmlns="urn:x"><totalResults>0</totalResults></object>`), "item", "totalResults")
	require.NoError(t, err)
	assert.Empty(t, set.Items)
	assert.Zero(t, set.Total)
}

func TestParseCount(t *testing.T) {
	assert.Equal(t, 1234, parseCount(" 1,234 "))
	assert.Equal(t, 0, parseCount("n/a"))
	assert.Equal(t, 0, parseCount("-5"))
}

// --- Local dataset ---

func TestLocalMatch(t *testing.T) {
	a := &LocalAdapter{Records: []normalize.Raw{
		{"서명": "딥러닝 입문", "저자": "홍길동", "발행자": "한빛", "발행년도": "2023", "ISBN": "9788966262281"},
		{"서명 ": "Go Programming"},
		{"Title": norm.NFD.String("딥러닝 실전")},
		{"서명": "", "제목": "파이썬 딥러닝"},
		{"저자": "딥러닝"},
	}}

	tests := []struct {
		keyword string
		want    []string
	}{
		{"딥러닝", []string{"딥러닝 입문", "딥러닝 실전", "파이썬 딥러닝"}},
		{"go PROGRAM", []string{"Go Programming"}},
		{"  입문 ", []string{"딥러닝 입문"}},
		{"없는책", nil},
	}
	for _, tt := range tests {
		t.Run(tt.keyword, func(t *testing.T) {
			var got []string
			for _, r := range a.Match(tt.keyword) {
				got = append(got, norm.NFC.String(localTitle(r)))
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func localTitle(rec normalize.Raw) string {
	return normalize.Lookup(rec, localTitleFields...)
}

func TestLocalSearchPaging(t *testing.T) {
	var recs []normalize.Raw
	for i := 0; i < 25; i++ {
		recs = append(recs, normalize.Raw{"서명": "딥러닝 " + string(rune('A'+i))})
	}
	a := &LocalAdapter{Records: recs}

	page, err := a.Search(context.Background(), "딥러닝", 3, 10)
	require.NoError(t, err)
	assert.Equal(t, 25, page.Total)
	require.Len(t, page.Records, 5)
	assert.Equal(t, "딥러닝 U", page.Records[0].Title)
	assert.Equal(t, NameLocal, page.Records[0].Source)

	page, err = a.Search(context.Background(), "딥러닝", 4, 10)
	require.NoError(t, err)
	assert.Empty(t, page.Records)
	assert.Equal(t, 25, page.Total)

	assert.Equal(t, 25, a.MaxRecords())
}

func TestLocalNormalize(t *testing.T) {
	a := &LocalAdapter{Records: []normalize.Raw{
		{"서명": "딥러닝 입문", "저자": "홍길동", "발행자": "한빛", "발행년도": "2023", "ISBN(세트)": "978-89-6626-228-1", "등록번호": "EM0001"},
	}}
	page, err := a.Search(context.Background(), "딥러닝", 1, 10)
	require.NoError(t, err)
	require.Len(t, page.Records, 1)

	assert.Equal(t, types.Record{
		Source:          NameLocal,
		Title:           "딥러닝 입문",
		Author:          "홍길동",
		Publisher:       "한빛",
		PublicationDate: "2023",
		Identifier:      "9788966262281",
		Extra:           map[string]string{"registration_number": "EM0001"},
	}, page.Records[0])
}

func TestLabel(t *testing.T) {
	assert.Equal(t, "RISS", Label(NameRISS))
	assert.Equal(t, "other", Label("other"))
}
