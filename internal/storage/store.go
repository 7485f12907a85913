package storage

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/gocarina/gocsv"
	"github.com/san-kum/evsim/internal/history"
	"github.com/san-kum/evsim/internal/physics"
	"github.com/sirupsen/logrus"
)

const (
	filePrefix = "ev_simulation_"
	fileExt    = ".csv"
	timeLayout = "20060102_150405"
	headerTag  = "Simulation Parameters: "
)

// Fixed2 is a float written with two decimals.
type Fixed2 float64

func (f Fixed2) MarshalCSV() (string, error) {
	return strconv.FormatFloat(float64(f), 'f', 2, 64), nil
}

func (f *Fixed2) UnmarshalCSV(s string) error {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return err
	}
	*f = Fixed2(v)
	return nil
}

// Row is one history sample in an export, oldest first.
type Row struct {
	Index       int    `csv:"Index"`
	Voltage     Fixed2 `csv:"Voltage (V)"`
	Current     Fixed2 `csv:"Current (A)"`
	Speed       Fixed2 `csv:"Speed (km/h)"`
	Temperature Fixed2 `csv:"Temperature (°C)"`
	SoC         Fixed2 `csv:"SoC (%)"`
	Torque      Fixed2 `csv:"Torque (Nm)"`
	Efficiency  Fixed2 `csv:"Efficiency (Wh/km)"`
}

func rowOf(i int, s history.Sample) Row {
	return Row{
		Index:       i,
		Voltage:     Fixed2(s[history.Voltage]),
		Current:     Fixed2(s[history.Current]),
		Speed:       Fixed2(s[history.Speed]),
		Temperature: Fixed2(s[history.Temperature]),
		SoC:         Fixed2(s[history.SoC]),
		Torque:      Fixed2(s[history.Torque]),
		Efficiency:  Fixed2(s[history.Efficiency]),
	}
}

// Export is a parsed export file.
type Export struct {
	Name   string
	Header string
	Rows   []Row
}

// Store writes and reads CSV exports in one directory.
type Store struct {
	baseDir string
	now     func() time.Time
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir, now: time.Now}
}

func (s *Store) Dir() string { return s.baseDir }

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

// ParamsHeader renders the first line of an export.
func ParamsHeader(p physics.Params) string {
	regen := "Off"
	if p.RegenBraking {
		regen = "On"
	}
	return fmt.Sprintf(headerTag+"Voltage=%.2f V, Capacity=%.2f kWh, Motor Power=%.2f kW, "+
		"Mass=%.2f kg, Drag=%.2f, Frontal Area=%.2f m², Air Density=%.2f kg/m³, "+
		"Rolling Resistance=%.3f, Gear Ratio=%.2f, Thermal Mass=%.2f J/°C, "+
		"Drive Mode=%s, Regen=%s, Regen Efficiency=%.2f",
		p.BatteryVoltage, p.BatteryCapacity, p.MotorPower,
		p.VehicleMass, p.DragCoefficient, p.FrontalArea, p.AirDensity,
		p.RollingResistance, p.GearRatio, p.ThermalMass,
		p.DriveMode, regen, p.RegenEfficiency)
}

// WriteCSV writes the parameter line, the column header and every history
// sample oldest first.
func WriteCSV(w io.Writer, p physics.Params, h *history.Buffers) error {
	if _, err := io.WriteString(w, ParamsHeader(p)+"\n"); err != nil {
		return err
	}
	rows := make([]Row, 0, h.Len())
	for i, sample := range h.All() {
		rows = append(rows, rowOf(i, sample))
	}
	return gocsv.Marshal(rows, w)
}

// Export writes h to a new timestamped file and returns its path. Failures
// are returned wrapped and leave no partial file behind.
func (s *Store) Export(p physics.Params, h *history.Buffers) (string, error) {
	if err := s.Init(); err != nil {
		return "", fmt.Errorf("create export dir: %w", err)
	}

	path, f, err := s.create()
	if err != nil {
		return "", fmt.Errorf("create export: %w", err)
	}

	werr := WriteCSV(f, p, h)
	cerr := f.Close()
	if err := errors.Join(werr, cerr); err != nil {
		os.Remove(path)
		return "", fmt.Errorf("write export %s: %w", filepath.Base(path), err)
	}

	logrus.Infof("exported history to %s", path)
	return path, nil
}

func (s *Store) create() (string, *os.File, error) {
	stem := filePrefix + s.now().Format(timeLayout)
	for n := 0; ; n++ {
		name := stem + fileExt
		if n > 0 {
			name = fmt.Sprintf("%s_%d%s", stem, n, fileExt)
		}
		path := filepath.Join(s.baseDir, name)
		f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
		if errors.Is(err, os.ErrExist) {
			continue
		}
		return path, f, err
	}
}

// List returns export file names, newest first.
func (s *Store) List() ([]string, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []string{}, nil
		}
		return nil, err
	}

	type export struct {
		name string
		mod  time.Time
	}
	found := make([]export, 0, len(entries))
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasPrefix(name, filePrefix) || !strings.HasSuffix(name, fileExt) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		found = append(found, export{name: name, mod: info.ModTime()})
	}

	sort.Slice(found, func(i, j int) bool {
		if !found[i].mod.Equal(found[j].mod) {
			return found[i].mod.After(found[j].mod)
		}
		return found[i].name > found[j].name
	})

	names := make([]string, len(found))
	for i, e := range found {
		names[i] = e.name
	}
	return names, nil
}

// Load parses an export by file name.
func (s *Store) Load(name string) (*Export, error) {
	if name != filepath.Base(name) {
		return nil, fmt.Errorf("invalid export name %q", name)
	}
	f, err := os.Open(filepath.Join(s.baseDir, name))
	if err != nil {
		return nil, err
	}
	defer f.Close()

	exp, err := ReadCSV(f)
	if err != nil {
		return nil, fmt.Errorf("read export %s: %w", name, err)
	}
	exp.Name = name
	return exp, nil
}

// ReadCSV parses the format written by WriteCSV.
func ReadCSV(r io.Reader) (*Export, error) {
	br := bufio.NewReader(r)
	header, err := br.ReadString('\n')
	if err != nil {
		return nil, fmt.Errorf("missing parameter line: %w", err)
	}
	header = strings.TrimRight(header, "\r\n")
	if !strings.HasPrefix(header, headerTag) {
		return nil, fmt.Errorf("unexpected first line %q", header)
	}

	var rows []Row
	if err := gocsv.Unmarshal(br, &rows); err != nil {
		return nil, err
	}
	return &Export{Header: header, Rows: rows}, nil
}
