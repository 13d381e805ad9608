package country

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type nopLogger struct{}

func (nopLogger) Debug(string, ...interface{}) {}
func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Warn(string, ...interface{})  {}
func (nopLogger) Error(string, ...interface{}) {}
func (nopLogger) Fatal(string, ...interface{}) {}

// stubSource serves Kenya, or fails with err. Fetches block until release is closed, if set.
type stubSource struct {
	release chan struct{}

	mu    sync.Mutex
	err   error
	calls int
}

func (s *stubSource) Fetch(ctx context.Context) ([]Country, error) {
	s.mu.Lock()
	s.calls++
	err := s.err
	s.mu.Unlock()

	if s.release != nil {
		select {
		case <-s.release:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if err != nil {
		return nil, err
	}
	return []Country{{Name: "Kenya", Code: "KE", PhoneCode: "+254"}}, nil
}

func (s *stubSource) setErr(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.err = err
}

func (s *stubSource) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

func names(countries []Country) []string {
	out := make([]string, 0, len(countries))
	for _, c := range countries {
		out = append(out, c.Name)
	}
	return out
}

func TestDirectory_Filter(t *testing.T) {
	ctx := context.Background()
	dir := NewStaticDirectory(
		Country{Name: "Ethiopia", Code: "ET", PhoneCode: "+251"},
		Country{Name: "Åland Islands", Code: "AX", PhoneCode: "+35818"},
		Country{Name: "Eritrea", Code: "ER", PhoneCode: "+291"},
		Country{Name: "Kenya", Code: "KE", PhoneCode: "+254"},
	)

	assert.Equal(t, []string{"Åland Islands", "Eritrea", "Ethiopia", "Kenya"}, names(dir.All(ctx)))

	tests := []struct {
		query string
		want  []string
	}{
		{"", []string{"Åland Islands", "Eritrea", "Ethiopia", "Kenya"}},
		{"  ", []string{"Åland Islands", "Eritrea", "Ethiopia", "Kenya"}},
		{"eth", []string{"Ethiopia"}},
		{"E", []string{"Eritrea", "Ethiopia", "Kenya"}},
		{"+25", []string{"Ethiopia", "Kenya"}},
		{"91", []string{"Eritrea"}},
		{"zz", []string{}},
	}
	for _, tc := range tests {
		t.Run(tc.query, func(t *testing.T) {
			assert.Equal(t, tc.want, names(dir.Filter(ctx, tc.query)))
		})
	}
}

func TestDirectory_Find(t *testing.T) {
	ctx := context.Background()
	dir := NewStaticDirectory()

	c, ok := dir.FindByName(ctx, "ethiopia")
	assert.True(t, ok)
	assert.Equal(t, "ET", c.Code)

	c, ok = dir.FindByCode(ctx, "us")
	assert.True(t, ok)
	assert.Equal(t, "United States", c.Name)

	_, ok = dir.FindByName(ctx, "Atlantis")
	assert.False(t, ok)
}

func TestCities(t *testing.T) {
	assert.Contains(t, Cities("et"), "Addis Ababa")
	assert.Empty(t, Cities("US"))
	assert.True(t, HasCity("ET", "Mekelle"))
	assert.False(t, HasCity("ET", "Nairobi"))
	assert.Contains(t, Subcities("Addis Ababa"), "Bole")
	assert.True(t, HasSubcity("Dire Dawa", "Sabian"))
	assert.False(t, HasSubcity("Gondar", "Bole"))
}

func TestDirectory_All_backoff(t *testing.T) {
	ctx := context.Background()
	src := &stubSource{err: errors.New("unreachable")}
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	dir := NewDirectory(src, time.Minute, nopLogger{})
	dir.now = func() time.Time { return now }

	assert.Equal(t, names(fallback()), names(dir.All(ctx)))
	src.setErr(nil)

	// within the backoff window the static list is served without fetching
	now = now.Add(59 * time.Second)
	assert.Equal(t, names(fallback()), names(dir.All(ctx)))
	assert.Equal(t, 1, src.Calls())

	now = now.Add(time.Second)
	assert.Equal(t, []string{"Kenya"}, names(dir.All(ctx)))
	assert.Equal(t, []string{"Kenya"}, names(dir.All(ctx)))
	assert.Equal(t, 2, src.Calls())
}

func TestDirectory_All_sharedFetch(t *testing.T) {
	src := &stubSource{release: make(chan struct{})}
	dir := NewDirectory(src, time.Minute, nopLogger{})

	const callers = 5
	results := make(chan []Country, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results <- dir.All(context.Background())
		}()
	}

	require.Eventually(t, func() bool { return src.Calls() == 1 }, time.Second, time.Millisecond)
	close(src.release)
	wg.Wait()
	close(results)

	for res := range results {
		assert.Equal(t, []string{"Kenya"}, names(res))
	}
	assert.Equal(t, 1, src.Calls())
}

func TestDirectory_All_cancelledWhileFetching(t *testing.T) {
	src := &stubSource{release: make(chan struct{})}
	dir := NewDirectory(src, time.Minute, nopLogger{})

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		assert.Eventually(t, func() bool { return src.Calls() == 1 }, time.Second, time.Millisecond)
		cancel()
	}()
	assert.Equal(t, names(fallback()), names(dir.All(ctx)))

	// a cancelled request does not start the backoff
	close(src.release)
	assert.Eventually(t, func() bool {
		all := dir.All(context.Background())
		return len(all) == 1 && all[0].Name == "Kenya"
	}, time.Second, 5*time.Millisecond)
}
