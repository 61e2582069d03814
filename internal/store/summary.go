package store

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"MarketPulse/internal/model"
)

const utf8BOM = "\ufeff"

// WriteVolumeSummary writes a summary as volume_summary_<YYYYMM>.csv under
// dir: one row per district, a 합계 row per city and a closing 전국 row.
// The file starts with a BOM so spreadsheet tools detect UTF-8.
func WriteVolumeSummary(dir string, s model.VolumeSummary) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("%w: create summary dir: %v", ErrPersistence, err)
	}
	path := filepath.Join(dir, fmt.Sprintf("volume_summary_%s.csv", s.YearMonth))
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("%w: create summary: %v", ErrPersistence, err)
	}
	defer f.Close()

	if _, err := f.WriteString(utf8BOM); err != nil {
		return "", fmt.Errorf("%w: write summary: %v", ErrPersistence, err)
	}
	w := csv.NewWriter(f)
	w.Write([]string{"도시", "구", "코드", "년월", "거래량"})
	for _, c := range s.Cities {
		for _, d := range c.Districts {
			w.Write([]string{c.City, d.District, d.Code, s.YearMonth, strconv.Itoa(d.Count)})
		}
		w.Write([]string{c.City, "합계", "", s.YearMonth, strconv.Itoa(c.Count)})
	}
	w.Write([]string{"전국", "합계", "", s.YearMonth, strconv.Itoa(s.National)})
	w.Flush()
	if err := w.Error(); err != nil {
		return "", fmt.Errorf("%w: write summary: %v", ErrPersistence, err)
	}
	return path, nil
}
