package store

import (
	"context"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/newer-zhu/investment/internal/dataset"
	"github.com/newer-zhu/investment/pkg/config"
	"github.com/newer-zhu/investment/pkg/logger"
)

func testStore(t *testing.T) *CSVStore {
	t.Helper()
	log := logger.New(&config.Config{Env: "development", LogLevel: "error"})
	return NewCSVStore(t.TempDir(), log)
}

func sampleRecords() []dataset.StockRecord {
	return []dataset.StockRecord{
		{ID: 1, Code: "600000", Name: "浦发银行", Price: 7.85, Change: 1.2, MarketCap: 2304.5,
			YTDChange: 8.4, Industry: "银行", FundamentalScore: 65, TechnicalScore: 72, TotalScore: 88.5},
		{ID: 2, Code: "000001", Name: "平安银行", Price: 11.2, Change: -0.5, MarketCap: 2170.8,
			YTDChange: -2.1, Industry: "银行", FundamentalScore: 60, TechnicalScore: 58, TotalScore: 76.2},
	}
}

func TestCSVStore_WriteReadRoundTrip(t *testing.T) {
	s := testStore(t)

	if err := s.Write("20240105", sampleRecords()); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	if !s.Exists("20240105") {
		t.Fatalf("Exists() = false after Write")
	}

	rows, err := s.ReadRows("20240105")
	if err != nil {
		t.Fatalf("ReadRows() error = %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("ReadRows() = %d rows, want 2", len(rows))
	}
	if rows[0]["代码"] != "600000" || rows[0]["名称"] != "浦发银行" {
		t.Errorf("rows[0] = %v", rows[0])
	}

	// The round trip keeps records loadable through the normalizer.
	records := dataset.Normalize(rows)
	if len(records) != 2 || records[0].Price != 7.85 || records[1].TotalScore != 76.2 {
		t.Errorf("normalized round trip = %+v", records)
	}
}

func TestCSVStore_WriteStartsWithBOM(t *testing.T) {
	s := testStore(t)
	if err := s.Write("20240105", sampleRecords()); err != nil {
		t.Fatalf("Write() error = %v", err)
	}

	raw, err := s.ReadRaw("20240105")
	if err != nil {
		t.Fatalf("ReadRaw() error = %v", err)
	}
	if len(raw) < 3 || raw[0] != 0xEF || raw[1] != 0xBB || raw[2] != 0xBF {
		t.Errorf("file does not start with a UTF-8 BOM")
	}
}

func TestCSVStore_Dates(t *testing.T) {
	s := testStore(t)

	for _, date := range []string{"20240103", "20240105", "20240104"} {
		if err := s.Write(date, sampleRecords()); err != nil {
			t.Fatalf("Write(%s) error = %v", date, err)
		}
	}
	// Unrelated files are ignored.
	if err := os.WriteFile(filepath.Join(s.dir, "notes.txt"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(s.dir, "picked_stocks_bad.csv"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	dates, err := s.Dates()
	if err != nil {
		t.Fatalf("Dates() error = %v", err)
	}
	want := []string{"20240105", "20240104", "20240103"}
	if !reflect.DeepEqual(dates, want) {
		t.Errorf("Dates() = %v, want %v", dates, want)
	}
}

func TestCSVStore_DatesMissingDir(t *testing.T) {
	log := logger.New(&config.Config{Env: "development", LogLevel: "error"})
	s := NewCSVStore(filepath.Join(t.TempDir(), "does-not-exist"), log)

	dates, err := s.Dates()
	if err != nil {
		t.Fatalf("Dates() error = %v, want nil for missing dir", err)
	}
	if len(dates) != 0 {
		t.Errorf("Dates() = %v, want empty", dates)
	}
}

func TestCSVStore_ReadMissing(t *testing.T) {
	s := testStore(t)
	if _, err := s.ReadRows("20240105"); !os.IsNotExist(err) {
		t.Errorf("ReadRows() error = %v, want not-exist", err)
	}
	if _, err := s.ReadRaw("20240105"); !os.IsNotExist(err) {
		t.Errorf("ReadRaw() error = %v, want not-exist", err)
	}
}

func TestCSVStore_Load(t *testing.T) {
	s := testStore(t)
	if err := s.Write("20240105", sampleRecords()); err != nil {
		t.Fatalf("Write() error = %v", err)
	}

	records, err := s.Load(context.Background(), "20240105")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(records) != 2 || records[0].Code != "600000" || records[1].TotalScore != 76.2 {
		t.Errorf("Load() = %+v", records)
	}
}

func TestCSVStore_LoadMissingDate(t *testing.T) {
	s := testStore(t)

	_, err := s.Load(context.Background(), "20240105")
	if kind, ok := dataset.KindOf(err); !ok || kind != dataset.ErrNotFound {
		t.Errorf("Load() error = %v, want not-found load error", err)
	}
}

func TestCSVStore_LoadMalformedFile(t *testing.T) {
	s := testStore(t)
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(s.Path("20240105"), []byte("\"broken"), 0o644); err != nil {
		t.Fatal(err)
	}

	_, err := s.Load(context.Background(), "20240105")
	if kind, ok := dataset.KindOf(err); !ok || kind != dataset.ErrParse {
		t.Errorf("Load() error = %v, want parse load error", err)
	}
}

func TestCSVStore_Prune(t *testing.T) {
	s := testStore(t)
	for _, date := range []string{"20240101", "20240102", "20240103", "20240104", "20240105"} {
		if err := s.Write(date, sampleRecords()); err != nil {
			t.Fatal(err)
		}
	}

	removed, err := s.Prune(3)
	if err != nil {
		t.Fatalf("Prune() error = %v", err)
	}
	if removed != 2 {
		t.Errorf("Prune() removed %d, want 2", removed)
	}

	dates, _ := s.Dates()
	want := []string{"20240105", "20240104", "20240103"}
	if !reflect.DeepEqual(dates, want) {
		t.Errorf("Dates() after prune = %v, want %v", dates, want)
	}

	// Pruning below the retained count is a no-op.
	removed, err = s.Prune(10)
	if err != nil || removed != 0 {
		t.Errorf("Prune(10) = %d, %v, want 0, nil", removed, err)
	}
}
