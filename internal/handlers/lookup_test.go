package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shrimpsizemoose/haksa/internal/app"
	"github.com/shrimpsizemoose/haksa/internal/view"
)

const testConfig = `
[server]
port = ":0"

[lookup]
variant = "full"

[[accounts]]
student_no = "2301"
name = "홍길동"
birth = "080315"
phone_last4 = "1234"
google_id = "honggildong@school.edu"

[[accounts]]
student_no = "2302"
name = "김하늘"
birth = "070921"
phone_last4 = "5678"
google_id = "kimhaneul@school.edu"
`

type stubLimiter struct {
	allow bool
	err   error
	calls int
}

func (l *stubLimiter) Allow(ctx context.Context, client string) (bool, error) {
	l.calls++
	return l.allow, l.err
}

func newTestHandler(t *testing.T, raw string) *LookupHandler {
	cfg, err := app.ParseConfig("test.toml", []byte(raw))
	require.NoError(t, err)

	s, err := app.NewStore(cfg)
	require.NoError(t, err)

	service, err := app.NewServiceWith(cfg, s, nil)
	require.NoError(t, err)
	t.Cleanup(func() { service.Close() })

	return NewLookupHandler(service)
}

func postJSON(h http.HandlerFunc, path, body string, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	h(rec, req)
	return rec
}

func decodeSnapshot(t *testing.T, rec *httptest.ResponseRecorder) view.Snapshot {
	var snap view.Snapshot
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &snap))
	return snap
}

func TestHandleLookupFound(t *testing.T) {
	h := newTestHandler(t, testConfig)

	rec := postJSON(h.HandleLookup, "/api/v1/lookup",
		`{"studentNo":"2301","studentName":"홍길동","birth":"080315","phoneLast4":"1234"}`)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	snap := decodeSnapshot(t, rec)
	assert.Equal(t, view.StateResultShown, snap.State)
	assert.True(t, strings.HasPrefix(snap.Status.Message, "계정을 찾았어요"))
	require.NotNil(t, snap.Result)
	assert.Equal(t, "honggildong@school.edu", snap.Result.GoogleID)
	assert.NotContains(t, rec.Body.String(), "demoPw")

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, "lookup_session", cookies[0].Name)
}

func TestHandleLookupNotFound(t *testing.T) {
	h := newTestHandler(t, testConfig)

	rec := postJSON(h.HandleLookup, "/api/v1/lookup",
		`{"studentNo":"2301","studentName":"홍길동","birth":"070921","phoneLast4":"0000"}`)

	require.Equal(t, http.StatusOK, rec.Code)
	snap := decodeSnapshot(t, rec)
	assert.Equal(t, view.StateIdle, snap.State)
	assert.Equal(t, view.StatusError, snap.Status.Type)
	assert.True(t, strings.HasPrefix(snap.Status.Message, "일치하는 계정을 찾지 못했어요"))
	assert.Nil(t, snap.Result)
}

func TestHandleLookupNormalizesInput(t *testing.T) {
	h := newTestHandler(t, testConfig)

	rec := postJSON(h.HandleLookup, "/api/v1/lookup",
		`{"studentNo":" 2302 ","studentName":"김 하늘","birth":"07-09-21abc","phoneLast4":"56-78"}`)

	snap := decodeSnapshot(t, rec)
	require.NotNil(t, snap.Result)
	assert.Equal(t, "kimhaneul@school.edu", snap.Result.GoogleID)
}

func TestHandleLookupRejections(t *testing.T) {
	t.Run("bad method", func(t *testing.T) {
		h := newTestHandler(t, testConfig)
		req := httptest.NewRequest(http.MethodGet, "/api/v1/lookup", nil)
		rec := httptest.NewRecorder()
		h.HandleLookup(rec, req)
		assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	})

	t.Run("bad body", func(t *testing.T) {
		h := newTestHandler(t, testConfig)
		rec := postJSON(h.HandleLookup, "/api/v1/lookup", `{"studentNo":`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("missing required header", func(t *testing.T) {
		h := newTestHandler(t, testConfig+`
[[api.required_headers]]
name = "x-lookup-client"
value = "web"
`)
		rec := postJSON(h.HandleLookup, "/api/v1/lookup", `{}`)
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("rate limited", func(t *testing.T) {
		h := newTestHandler(t, testConfig)
		limiter := &stubLimiter{allow: false}
		h.limiter = limiter

		rec := postJSON(h.HandleLookup, "/api/v1/lookup",
			`{"studentNo":"2301","studentName":"홍길동","birth":"080315","phoneLast4":"1234"}`)
		assert.Equal(t, http.StatusTooManyRequests, rec.Code)
		assert.Equal(t, 1, limiter.calls)

		snap := decodeSnapshot(t, rec)
		assert.Equal(t, view.StatusError, snap.Status.Type)
		assert.Nil(t, snap.Result)
	})

	t.Run("limiter failure", func(t *testing.T) {
		h := newTestHandler(t, testConfig)
		h.limiter = &stubLimiter{err: errors.New("redis down")}

		rec := postJSON(h.HandleLookup, "/api/v1/lookup", `{}`)
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
	})
}

func TestSessionKeepsView(t *testing.T) {
	h := newTestHandler(t, testConfig)

	rec := postJSON(h.HandleLookup, "/api/v1/lookup",
		`{"studentNo":"2301","studentName":"홍길동","birth":"080315","phoneLast4":"1234"}`)
	cookie := rec.Result().Cookies()[0]

	req := httptest.NewRequest(http.MethodGet, "/api/v1/view", nil)
	req.AddCookie(cookie)
	viewRec := httptest.NewRecorder()
	h.HandleView(viewRec, req)

	snap := decodeSnapshot(t, viewRec)
	assert.Equal(t, view.StateResultShown, snap.State)
	assert.Empty(t, viewRec.Result().Cookies(), "known session keeps its cookie")

	resetRec := postJSON(h.HandleReset, "/api/v1/reset", "", cookie)
	reset := decodeSnapshot(t, resetRec)
	assert.Equal(t, view.StateIdle, reset.State)
	assert.Empty(t, reset.Status.Message)
	assert.Nil(t, reset.Result)
	assert.Equal(t, "studentNo", reset.Focus)

	viewRec = httptest.NewRecorder()
	h.HandleView(viewRec, req)
	assert.Equal(t, view.StateIdle, decodeSnapshot(t, viewRec).State)
}

func TestHandleResetRequest(t *testing.T) {
	h := newTestHandler(t, testConfig)

	rec := postJSON(h.HandleResetRequest, "/api/v1/reset-request", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var status view.Status
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))
	assert.Equal(t, view.StatusInfo, status.Type)
	assert.Equal(t, view.MsgResetRequest, status.Message)
}

func TestHandleNormalize(t *testing.T) {
	h := newTestHandler(t, testConfig)

	testCases := []struct {
		query string
		code  int
		value string
	}{
		{"field=birth&value=08-03-15abc", http.StatusOK, "080315"},
		{"field=phoneLast4&value=010-1234-5678", http.StatusOK, "0101"},
		{"field=studentNo&value=23a01", http.StatusOK, "23a01"},
		{"field=googleId&value=x", http.StatusBadRequest, ""},
	}

	for _, tc := range testCases {
		t.Run(tc.query, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/v1/normalize?"+tc.query, nil)
			rec := httptest.NewRecorder()
			h.HandleNormalize(rec, req)

			require.Equal(t, tc.code, rec.Code)
			if tc.code != http.StatusOK {
				return
			}
			var body map[string]string
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, tc.value, body["value"])
		})
	}
}

func TestInstrumentKeepsStatus(t *testing.T) {
	handler := Instrument(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusTeapot)
	})

	rec := httptest.NewRecorder()
	handler(rec, httptest.NewRequest(http.MethodGet, "/x", nil))
	assert.Equal(t, http.StatusTeapot, rec.Code)
}

func TestCookielessCallsCreateNoSessions(t *testing.T) {
	h := newTestHandler(t, testConfig)

	for i := 0; i < 5000; i++ {
		rec := postJSON(h.HandleResetRequest, "/api/v1/reset-request", "")
		require.Equal(t, http.StatusOK, rec.Code)
		require.Empty(t, rec.Result().Cookies())
	}

	viewRec := httptest.NewRecorder()
	h.HandleView(viewRec, httptest.NewRequest(http.MethodGet, "/api/v1/view", nil))
	assert.Equal(t, view.Idle(), decodeSnapshot(t, viewRec))
	assert.Empty(t, viewRec.Result().Cookies())

	resetRec := postJSON(h.HandleReset, "/api/v1/reset", "")
	assert.Equal(t, view.Cleared(), decodeSnapshot(t, resetRec))
	assert.Empty(t, resetRec.Result().Cookies())

	stale := &http.Cookie{Name: "lookup_session", Value: "not-a-session"}
	resetRec = postJSON(h.HandleReset, "/api/v1/reset", "", stale)
	assert.Equal(t, view.Cleared(), decodeSnapshot(t, resetRec))
	assert.Empty(t, resetRec.Result().Cookies())

	assert.Equal(t, 0, h.service.Sessions.Len())
}

func TestSessionCapBoundsLookups(t *testing.T) {
	h := newTestHandler(t, testConfig+`
[session]
max_sessions = 3
`)

	for i := 0; i < 20; i++ {
		rec := postJSON(h.HandleLookup, "/api/v1/lookup", `{}`)
		require.Equal(t, http.StatusOK, rec.Code)
		require.Len(t, rec.Result().Cookies(), 1)
	}
	assert.Equal(t, 3, h.service.Sessions.Len())
}

func TestHandleNormalizeRequiresHeaders(t *testing.T) {
	h := newTestHandler(t, testConfig+`
[[api.required_headers]]
name = "x-lookup-client"
value = "web"
`)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/normalize?field=birth&value=080315", nil)
	rec := httptest.NewRecorder()
	h.HandleNormalize(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	req.Header.Set("X-Lookup-Client", "web")
	rec = httptest.NewRecorder()
	h.HandleNormalize(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}
