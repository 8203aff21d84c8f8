package filehook

import (
	"testing"
	"unicode/utf16"

	"github.com/k2io/chaudhook/assets"
	"github.com/k2io/chaudhook/internal/wtf8"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

// fakeHost records what reaches the original wide entry point and checks
// the guard and table discipline at that moment.
type fakeHost struct {
	t        *testing.T
	table    *lockedTable
	guards   int
	acquired int
	forwards []string
	raw      [][]uint16
	result   uintptr
}

type lockedTable struct {
	r      *assets.Replacer
	inside bool
}

func (l *lockedTable) Lookup(path string) (string, bool) {
	l.inside = true
	defer func() { l.inside = false }()
	return l.r.Lookup(path)
}

type hostGuard struct{ h *fakeHost }

func (g hostGuard) Release() { g.h.guards-- }

func newHost(t *testing.T, table map[string]string) (*fakeHost, *Handler) {
	r := assets.NewReplacer()
	for k, v := range table {
		r.Add(k, v)
	}
	h := &fakeHost{t: t, table: &lockedTable{r: r}, result: 0x1234}
	return h, &Handler{
		Replacements: func() (Lookuper, error) { return h.table, nil },
		Forward: func(name []uint16, args Args) uintptr {
			assert.Equal(t, uint16(0), name[len(name)-1], "name must be NUL-terminated")
			assert.Equal(t, 1, h.guards, "guard must be held while forwarding")
			assert.False(t, h.table.inside, "table must not be held while forwarding")
			assert.Equal(t, testArgs, args)
			h.forwards = append(h.forwards, decode(name))
			h.raw = append(h.raw, append([]uint16(nil), name...))
			return h.result
		},
		Guard: func() Releaser {
			h.guards++
			h.acquired++
			return hostGuard{h}
		},
		Logger: zap.NewNop().Sugar(),
	}
}

var testArgs = Args{
	Access:      0x80000000,
	ShareMode:   1,
	Disposition: 3,
	Flags:       0x80,
}

func wide(s string) []uint16 {
	return utf16.Encode([]rune(s))
}

func TestPassThrough(t *testing.T) {
	host, h := newHost(t, nil)

	r, err := h.OpenWide(wide(`data\foo.dat`), testArgs)
	require.NoError(t, err)
	assert.Equal(t, host.result, r)
	assert.Equal(t, []string{`data\foo.dat`}, host.forwards)
	assert.Equal(t, 0, host.guards)
	assert.Equal(t, 1, host.acquired)
}

func TestNarrowRedirect(t *testing.T) {
	host, h := newHost(t, map[string]string{`exe\exe1.dat`: `mods\A\exe1.dat`})
	core, logs := observer.New(zapcore.InfoLevel)
	h.Logger = zap.New(core).Sugar()

	r, err := h.OpenNarrow([]byte(`exe\exe1.dat`), testArgs)
	require.NoError(t, err)
	assert.Equal(t, host.result, r)
	assert.Equal(t, []string{`mods\A\exe1.dat`}, host.forwards)
	assert.Equal(t, 0, host.guards)

	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, zapcore.InfoLevel, entry.Level)
	assert.Equal(t, `read to exe\exe1.dat was redirected -> mods\A\exe1.dat`, entry.Message)
}

func TestWideRedirectAfterClean(t *testing.T) {
	host, h := newHost(t, map[string]string{`exe\a.dat`: `mods\a.dat`})

	_, err := h.OpenWide(wide(`exe\.\a.dat`), testArgs)
	require.NoError(t, err)
	assert.Equal(t, []string{`mods\a.dat`}, host.forwards)
}

func TestBothEntryPointsAgree(t *testing.T) {
	table := map[string]string{`exe\exe1.dat`: `mods\A\exe1.dat`}
	for _, p := range []string{`exe\exe1.dat`, `exe/exe1.dat`, `data\foo.dat`, `..\exe\data\exe1.dat`} {
		wHost, wh := newHost(t, table)
		nHost, nh := newHost(t, table)

		_, err := wh.OpenWide(wide(p), testArgs)
		require.NoError(t, err)
		_, err = nh.OpenNarrow([]byte(p), testArgs)
		require.NoError(t, err)

		require.Len(t, wHost.forwards, 1, p)
		assert.Equal(t, wHost.forwards, nHost.forwards, p)
	}
}

func TestNarrowLossyDecode(t *testing.T) {
	host, h := newHost(t, nil)

	_, err := h.OpenNarrow([]byte("data\\caf\xe9.dat"), testArgs)
	require.NoError(t, err)
	assert.Equal(t, []string{"data\\caf\uFFFD.dat"}, host.forwards)
}

func TestMissingTable(t *testing.T) {
	host, h := newHost(t, nil)
	h.Replacements = func() (Lookuper, error) { return nil, assets.ErrNotInitialized }

	_, err := h.OpenWide(wide(`data\foo.dat`), testArgs)
	assert.True(t, errors.Is(err, assets.ErrNotInitialized))
	assert.Empty(t, host.forwards)
	assert.Equal(t, 0, host.guards)
}

// reentrantSink opens a file through the wide entry each time it is
// written to, like a log file sink that reopens its file.
type reentrantSink struct {
	open func()
}

func (s reentrantSink) Write(p []byte) (int, error) {
	s.open()
	return len(p), nil
}

func (s reentrantSink) Sync() error { return nil }

func TestLoggingDoesNotReenter(t *testing.T) {
	host, h := newHost(t, map[string]string{`exe\a.dat`: `mods\a.dat`})
	handled, passed := 0, 0
	// entry behaves like the detoured CreateFileW: it reaches the handler
	// unless a guard is held on this thread.
	entry := func(name string) {
		if host.guards > 0 {
			passed++
			return
		}
		handled++
		_, err := h.OpenWide(wide(name), testArgs)
		require.NoError(t, err)
	}
	sink := reentrantSink{open: func() { entry("chaudhook.log") }}
	h.Logger = zap.New(zapcore.NewCore(zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig()), sink, zapcore.InfoLevel)).Sugar()

	entry(`exe\a.dat`)
	assert.Equal(t, 1, handled)
	assert.Equal(t, 1, passed)
	assert.Equal(t, []string{`mods\a.dat`}, host.forwards)
}

func TestWideNameKeptVerbatim(t *testing.T) {
	host, h := newHost(t, map[string]string{`exe\a.dat`: `mods\a.dat`})
	name := append(wide(`data\`), 0xd800, '.', 'd', 'a', 't')

	_, err := h.OpenWide(name, testArgs)
	require.NoError(t, err)
	require.Len(t, host.raw, 1)
	assert.Equal(t, append(name, 0), host.raw[0])
}

func TestWideSurrogatePairRedirect(t *testing.T) {
	host, h := newHost(t, map[string]string{"exe\\\U0001F600.dat": `mods\a.dat`})

	_, err := h.OpenWide(wide("exe\\.\\\U0001F600.dat"), testArgs)
	require.NoError(t, err)
	assert.Equal(t, []string{`mods\a.dat`}, host.forwards)
}

func TestEncode(t *testing.T) {
	assert.Equal(t, []uint16{'a', 0}, encode("a"))
	assert.Equal(t, []uint16{'a', 0}, encode("a\x00b"))
	assert.Equal(t, []uint16{0xd800, 0}, encode("\xed\xa0\x80"))
	assert.Equal(t, "a", decode([]uint16{'a', 0, 'b'}))
}

// decode returns the UTF-16 name up to its terminator.
func decode(name []uint16) string {
	for i, c := range name {
		if c == 0 {
			name = name[:i]
			break
		}
	}
	return wtf8.FromUTF16(name)
}
