package app

import (
	"fmt"
	"image"
	"sync"
	"time"

	"github.com/golang/glog"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/devices/v3/ssd1306"
	"periph.io/x/devices/v3/ssd1306/image1bit"
	"periph.io/x/host/v3"

	"github.com/relabs-tech/imu_link/internal/config"
	"github.com/relabs-tech/imu_link/internal/imu"
	"github.com/relabs-tech/imu_link/internal/orientation"
)

const (
	oledWidth  = 128
	oledHeight = 64
	lineHeight = 13
)

// ssd1306Addr is the address the ssd1306 driver always uses.
const ssd1306Addr = 0x3C

// addrBus sends every transaction to addr, so a panel strapped to 0x3D can
// be driven by the ssd1306 driver.
type addrBus struct {
	i2c.Bus
	addr uint16
}

func (b *addrBus) Tx(_ uint16, w, r []byte) error {
	return b.Bus.Tx(b.addr, w, r)
}

// displayBus returns bus unchanged for the default address.
func displayBus(bus i2c.Bus, addr uint16) i2c.Bus {
	if addr == ssd1306Addr {
		return bus
	}
	return &addrBus{Bus: bus, addr: addr}
}

// DisplayData holds the latest data for display
type DisplayData struct {
	mu sync.RWMutex

	reading     imu.Reading
	haveReading bool
	stats       LinkStats
	haveStats   bool
}

func (d *DisplayData) setReading(r imu.Reading) {
	d.mu.Lock()
	d.reading = r
	d.haveReading = true
	d.mu.Unlock()
}

func (d *DisplayData) setStats(s LinkStats) {
	d.mu.Lock()
	d.stats = s
	d.haveStats = true
	d.mu.Unlock()
}

// displayPage is what one OLED refresh shows.
type displayPage struct {
	title string   // shown while waiting for data
	lines []string // nil while waiting
}

// pageFor builds the lines for content from the latest data.
func (d *DisplayData) pageFor(content string) (displayPage, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	switch content {
	case "motion":
		page := displayPage{title: "IMU motion"}
		if d.haveReading {
			r := d.reading
			page.lines = []string{
				fmt.Sprintf("A:%6.2f %6.2f", r.AccX, r.AccY),
				fmt.Sprintf("  %6.2f", r.AccZ),
				fmt.Sprintf("G:%6.2f %6.2f", r.GyrX, r.GyrY),
				fmt.Sprintf("  %6.2f", r.GyrZ),
			}
		}
		return page, nil

	case "orientation":
		page := displayPage{title: "Orientation"}
		if d.haveReading {
			pose := orientation.FromReading(d.reading)
			page.lines = []string{
				fmt.Sprintf("R: %6.1f", pose.Roll),
				fmt.Sprintf("P: %6.1f", pose.Pitch),
				fmt.Sprintf("Y: %6.1f", pose.Yaw),
			}
		}
		return page, nil

	case "stats":
		page := displayPage{title: "Link stats"}
		if d.haveStats {
			s := d.stats
			page.lines = []string{
				fmt.Sprintf("IMU %d/%d", s.IMUValid, s.IMUValid+s.IMUInvalid),
				fmt.Sprintf("EF  %d/%d", s.EFValid, s.EFValid+s.EFInvalid),
				fmt.Sprintf("ovr %d drop %d", s.Overruns, s.FIFODropped),
				fmt.Sprintf("irq %d", s.Interrupts),
			}
		}
		return page, nil

	default:
		return displayPage{}, fmt.Errorf("unknown display content type: %s", content)
	}
}

// render draws page on a blank OLED-sized image.
func render(page displayPage) *image1bit.VerticalLSB {
	img := image1bit.NewVerticalLSB(image.Rect(0, 0, oledWidth, oledHeight))

	drawer := &font.Drawer{
		Dst:  img,
		Src:  &image.Uniform{image1bit.On},
		Face: basicfont.Face7x13,
	}

	if page.lines == nil {
		drawer.Dot = fixed.P(0, 2*lineHeight)
		drawer.DrawString(page.title)
		drawer.Dot = fixed.P(0, 3*lineHeight)
		drawer.DrawString("Waiting...")
		return img
	}

	for i, line := range page.lines {
		drawer.Dot = fixed.P(0, (i+1)*lineHeight)
		drawer.DrawString(line)
	}
	return img
}

func splash() displayPage {
	return displayPage{lines: []string{"", " imu_link", " CX5-25 MIP"}}
}

func RunDisplay() error {
	cfg := config.Get()

	// Initialize periph
	if _, err := host.Init(); err != nil {
		return fmt.Errorf("failed to initialize periph: %w", err)
	}

	// Open I2C bus
	bus, err := i2creg.Open(cfg.DisplayI2CBus)
	if err != nil {
		return fmt.Errorf("failed to open I2C bus: %w", err)
	}
	defer bus.Close()

	dev, err := ssd1306.NewI2C(displayBus(bus, cfg.DisplayI2CAddr), &ssd1306.DefaultOpts)
	if err != nil {
		return fmt.Errorf("failed to initialize display: %w", err)
	}
	glog.Infof("display: initialized at 0x%02X", cfg.DisplayI2CAddr)

	if err := dev.Draw(dev.Bounds(), render(splash()), image.Point{}); err != nil {
		glog.Warningf("display: error showing splash: %v", err)
	}

	data := &DisplayData{}

	client, err := connectMQTT(cfg.MQTTBroker, clientID(cfg.MQTTClientIDDisplay, "display"))
	if err != nil {
		return fmt.Errorf("display: %w", err)
	}
	defer client.Disconnect(250)

	// Subscribe to topics based on display content configuration
	if cfg.DisplayContent == "stats" {
		err = subscribeJSON(client, cfg.TopicStats, data.setStats)
	} else {
		err = subscribeJSON(client, cfg.TopicReading, data.setReading)
	}
	if err != nil {
		return fmt.Errorf("display: %w", err)
	}

	ticker := time.NewTicker(time.Duration(cfg.DisplayUpdateInterval) * time.Millisecond)
	defer ticker.Stop()

	glog.Infof("display: showing %s", cfg.DisplayContent)

	for range ticker.C {
		page, err := data.pageFor(cfg.DisplayContent)
		if err != nil {
			return fmt.Errorf("display: %w", err)
		}
		if err := dev.Draw(dev.Bounds(), render(page), image.Point{}); err != nil {
			glog.Warningf("display: error updating display: %v", err)
		}
	}

	return nil
}
