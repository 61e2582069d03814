package region

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefault_IsValid(t *testing.T) {
	tbl := Default()
	if err := tbl.Validate(); err != nil {
		t.Fatalf("default table invalid: %v", err)
	}
	seoul, ok := tbl.City("서울")
	if !ok {
		t.Fatal("expected Seoul in default table")
	}
	if len(seoul.Districts) != 25 {
		t.Errorf("expected 25 Seoul districts, got %d", len(seoul.Districts))
	}
}

func TestLoad_YAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "regions.yaml")
	data := `cities:
  - name: 서울
    districts:
      - name: 강남구
        code: "11680"
      - name: 서초구
        code: "11650"
`
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatal(err)
	}
	tbl, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(tbl.Cities) != 1 || len(tbl.Cities[0].Districts) != 2 {
		t.Errorf("unexpected table %+v", tbl)
	}
}

func TestLoad_RejectsBadCode(t *testing.T) {
	path := filepath.Join(t.TempDir(), "regions.yaml")
	data := "cities:\n  - name: x\n    districts:\n      - name: y\n        code: \"123\"\n"
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Error("expected validation error")
	}
}

func TestLoad_EmptyPathUsesDefault(t *testing.T) {
	tbl, err := Load("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(tbl.Cities) == 0 {
		t.Error("expected default cities")
	}
}
