package app

import (
	"context"
	"encoding/json"
	"errors"
	"image"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/devices/v3/ssd1306/image1bit"

	"github.com/relabs-tech/imu_link/internal/config"
	"github.com/relabs-tech/imu_link/internal/imu"
	"github.com/relabs-tech/imu_link/internal/sensors"
)

type constSource struct{ r imu.Reading }

func (s constSource) Next() (imu.Reading, error) { return s.r, nil }

var sample = imu.Reading{
	AccX: 0.5, AccY: -0.25, AccZ: 9.81,
	GyrX: 0.01, GyrY: -0.02, GyrZ: 0.5,
	Roll: 0.1, Pitch: -0.2, Yaw: 1.5,
}

func testConfig() *config.Config {
	return &config.Config{
		IMUFIFOSize:      128,
		IMUReadChunk:     64,
		IMURxTimeoutUS:   200,
		IMUParseInterval: 5,
	}
}

func TestClientID(t *testing.T) {
	saved := machineID
	defer func() { machineID = saved }()

	machineID = func() (string, error) { return "0123456789abcdef", nil }
	assert.Equal(t, "custom", clientID("custom", "producer"))
	assert.Equal(t, "imu-link-web-01234567", clientID("", "web"))

	machineID = func() (string, error) { return "", errors.New("no /etc/machine-id") }
	assert.Equal(t, "imu-link-display", clientID("", "display"))
}

func TestPipelineWithMock(t *testing.T) {
	mock := sensors.NewMock(constSource{sample}, sensors.MockOptions{RateHz: 200})
	defer mock.Close()

	p, err := NewPipeline(mock, testConfig())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	p.Start(ctx)

	require.Eventually(t, func() bool {
		res := p.Parser.Parse()
		return res.IMUValid && res.EFValid
	}, 5*time.Second, 5*time.Millisecond)

	assert.Equal(t, sample, p.Parser.Reading())
	assert.Equal(t, sample.Fixed(), p.Parser.Fixed())

	s := p.Stats()
	assert.NotZero(t, s.Interrupts)
	assert.NotZero(t, s.FIFOPushed)
	assert.Zero(t, s.FIFODropped)
	assert.Contains(t, s.String(), "irq=")
}

func TestPipelineEndsWithSource(t *testing.T) {
	mock := sensors.NewMock(constSource{sample}, sensors.MockOptions{RateHz: 200})
	p, err := NewPipeline(mock, testConfig())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	errc := p.Start(ctx)

	mock.Close()
	select {
	case err := <-errc:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("pump did not stop after the source closed")
	}
}

func TestPipelineStopsWithContext(t *testing.T) {
	mock := sensors.NewMock(constSource{sample}, sensors.MockOptions{RateHz: 200})
	defer mock.Close()
	p, err := NewPipeline(mock, testConfig())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	errc := p.Start(ctx)
	cancel()

	// the pump and the receiver both report
	for i := 0; i < 2; i++ {
		select {
		case err := <-errc:
			assert.ErrorIs(t, err, context.Canceled)
		case <-time.After(5 * time.Second):
			t.Fatalf("only %d of 2 stages stopped", i)
		}
	}
}

func TestNewPipelineRejectsBadFIFO(t *testing.T) {
	cfg := testConfig()
	cfg.IMUFIFOSize = 100
	_, err := NewPipeline(strings.NewReader(""), cfg)
	assert.Error(t, err)
}

func TestLinkStatsJSON(t *testing.T) {
	in := LinkStats{FIFOPushed: 10, FIFODropped: 2, Interrupts: 3}
	in.IMUValid = 7
	payload, err := json.Marshal(in)
	require.NoError(t, err)
	assert.Contains(t, string(payload), `"imu_valid":7`)
	assert.Contains(t, string(payload), `"fifo_dropped":2`)

	var out LinkStats
	require.NoError(t, json.Unmarshal(payload, &out))
	assert.Equal(t, in, out)
}

func TestWebEndpoints(t *testing.T) {
	state := newWebState()
	srv := httptest.NewServer(state.routes())
	defer srv.Close()

	for _, path := range []string{"/api/reading", "/api/orientation", "/api/fixed", "/api/stats"} {
		resp, err := http.Get(srv.URL + path)
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode, path)
	}

	state.setReading(sample)
	state.setFixed(sample.Fixed())
	state.setStats(LinkStats{Interrupts: 4})

	var r imu.Reading
	getJSON(t, srv.URL+"/api/reading", &r)
	assert.Equal(t, sample, r)

	var f imu.Fixed
	getJSON(t, srv.URL+"/api/fixed", &f)
	assert.Equal(t, sample.Fixed(), f)

	var s LinkStats
	getJSON(t, srv.URL+"/api/stats", &s)
	assert.Equal(t, uint64(4), s.Interrupts)

	var pose struct{ Roll, Pitch, Yaw float64 }
	getJSON(t, srv.URL+"/api/orientation", &pose)
	assert.InDelta(t, 5.7296, pose.Roll, 1e-3)
}

func getJSON(t *testing.T, url string, v any) {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))
	require.NoError(t, json.NewDecoder(resp.Body).Decode(v))
}

func TestWebStream(t *testing.T) {
	state := newWebState()
	state.setReading(sample)
	srv := httptest.NewServer(state.routes())
	defer srv.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+"/ws", nil)
	require.NoError(t, err)
	defer conn.Close()
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))

	// latest value first
	var r imu.Reading
	require.NoError(t, conn.ReadJSON(&r))
	assert.Equal(t, sample, r)

	next := sample
	next.Yaw = -1
	state.setReading(next)
	require.NoError(t, conn.ReadJSON(&r))
	assert.Equal(t, next, r)

	conn.Close()
	require.Eventually(t, func() bool { return state.clientCount() == 0 }, 5*time.Second, 10*time.Millisecond)
}

func TestDisplayPages(t *testing.T) {
	d := &DisplayData{}

	for _, content := range []string{"motion", "orientation", "stats"} {
		page, err := d.pageFor(content)
		require.NoError(t, err)
		assert.Nil(t, page.lines, content)
		assert.NotEmpty(t, page.title, content)
	}

	d.setReading(sample)
	d.setStats(LinkStats{Stats: imu.Stats{IMUValid: 9, IMUInvalid: 1}})

	page, err := d.pageFor("orientation")
	require.NoError(t, err)
	assert.Equal(t, "R:    5.7", page.lines[0])

	page, err = d.pageFor("motion")
	require.NoError(t, err)
	assert.Equal(t, "    9.81", page.lines[1])

	page, err = d.pageFor("stats")
	require.NoError(t, err)
	assert.Equal(t, "IMU 9/10", page.lines[0])

	_, err = d.pageFor("gps")
	assert.Error(t, err)
}

func TestRender(t *testing.T) {
	lit := func(img *image1bit.VerticalLSB) int {
		n := 0
		for y := 0; y < oledHeight; y++ {
			for x := 0; x < oledWidth; x++ {
				if img.BitAt(x, y) == image1bit.On {
					n++
				}
			}
		}
		return n
	}

	blank := render(displayPage{lines: []string{}})
	assert.Zero(t, lit(blank))

	img := render(displayPage{title: "Orientation"})
	assert.Equal(t, image.Rect(0, 0, oledWidth, oledHeight), img.Bounds())
	assert.NotZero(t, lit(img))
	assert.NotZero(t, lit(render(splash())))
}

func TestShellHelpers(t *testing.T) {
	saved := listPorts
	defer func() { listPorts = saved }()

	listPorts = func() ([]string, error) { return []string{"/dev/ttyUSB0", "/dev/ttyS0"}, nil }
	assert.Equal(t, "/dev/ttyUSB0\n/dev/ttyS0", describePorts())
	listPorts = func() ([]string, error) { return nil, nil }
	assert.Equal(t, "no serial ports found", describePorts())
	listPorts = func() ([]string, error) { return nil, errors.New("denied") }
	assert.Equal(t, "error: denied", describePorts())

	p, err := NewPipeline(strings.NewReader(""), testConfig())
	require.NoError(t, err)
	assert.Equal(t, "empty window", describeResult(p))
	assert.Equal(t, "empty window", rawWindow(p))

	frame := imu.EncodeFrame(sample)
	buf := p.Buffers.BeginWrite()
	copy(buf, frame[:])
	p.Buffers.EndWrite(len(frame), false)
	assert.Equal(t, "56 bytes at 0: imu=true ef=true", describeResult(p))

	buf = p.Buffers.BeginWrite()
	copy(buf, frame[:])
	p.Buffers.EndWrite(len(frame), true)
	out := rawWindow(p)
	assert.True(t, strings.HasPrefix(out, "buffer "))
	assert.Contains(t, out, "56 bytes OVERRUN")
	assert.Contains(t, out, "75 65 80 1c")
}

func TestFormatLines(t *testing.T) {
	assert.Contains(t, formatReading(sample), "az=   9.810")
	assert.Contains(t, formatFixed(sample.Fixed()), "az= 20090")
}

type recordingBus struct{ addrs []uint16 }

func (b *recordingBus) String() string { return "recording" }

func (b *recordingBus) Tx(addr uint16, w, r []byte) error {
	b.addrs = append(b.addrs, addr)
	return nil
}

func (b *recordingBus) SetSpeed(physic.Frequency) error { return nil }

func TestDisplayBusAddress(t *testing.T) {
	bus := &recordingBus{}
	assert.Same(t, bus, displayBus(bus, 0x3C))

	var wrapped i2c.Bus = displayBus(bus, 0x3D)
	require.NoError(t, wrapped.Tx(0x3C, []byte{0x00, 0xAE}, nil))
	require.NoError(t, wrapped.Tx(0x3C, []byte{0x40}, nil))
	assert.Equal(t, []uint16{0x3D, 0x3D}, bus.addrs)
	assert.Equal(t, "recording", wrapped.String())
}
