package region

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// District is a 5-digit LAWD code (시군구) under a city.
type District struct {
	Name string `yaml:"name"`
	Code string `yaml:"code"`
}

// City groups the districts queried for one metropolitan area or province.
type City struct {
	Name      string     `yaml:"name"`
	Districts []District `yaml:"districts"`
}

// Table is the ordered list of regions queried for national volume.
type Table struct {
	Cities []City `yaml:"cities"`
}

// Load reads a region table from a YAML file. An empty path returns Default.
func Load(path string) (*Table, error) {
	if path == "" {
		return Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read region table: %w", err)
	}
	var t Table
	if err := yaml.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("parse region table: %w", err)
	}
	if err := t.Validate(); err != nil {
		return nil, err
	}
	return &t, nil
}

// Validate rejects empty tables and malformed codes.
func (t *Table) Validate() error {
	if len(t.Cities) == 0 {
		return fmt.Errorf("region table has no cities")
	}
	seen := make(map[string]bool)
	for _, c := range t.Cities {
		for _, d := range c.Districts {
			if len(d.Code) != 5 {
				return fmt.Errorf("region %s %s: code %q must be 5 digits", c.Name, d.Name, d.Code)
			}
			if seen[d.Code] {
				return fmt.Errorf("region code %s listed twice", d.Code)
			}
			seen[d.Code] = true
		}
	}
	return nil
}

// City returns the named city.
func (t *Table) City(name string) (City, bool) {
	for _, c := range t.Cities {
		if c.Name == name {
			return c, true
		}
	}
	return City{}, false
}

// Default covers the Seoul districts and one representative district for
// each other metropolitan city.
func Default() *Table {
	return &Table{Cities: []City{
		{Name: "서울", Districts: []District{
			{"종로구", "11110"}, {"중구", "11140"}, {"용산구", "11170"}, {"성동구", "11200"},
			{"광진구", "11215"}, {"동대문구", "11230"}, {"중랑구", "11260"}, {"성북구", "11290"},
			{"강북구", "11305"}, {"도봉구", "11320"}, {"노원구", "11350"}, {"은평구", "11380"},
			{"서대문구", "11410"}, {"마포구", "11440"}, {"양천구", "11470"}, {"강서구", "11500"},
			{"구로구", "11530"}, {"금천구", "11545"}, {"영등포구", "11560"}, {"동작구", "11590"},
			{"관악구", "11620"}, {"서초구", "11650"}, {"강남구", "11680"}, {"송파구", "11710"},
			{"강동구", "11740"},
		}},
		{Name: "부산", Districts: []District{{"해운대구", "26350"}}},
		{Name: "대구", Districts: []District{{"수성구", "27260"}}},
		{Name: "인천", Districts: []District{{"연수구", "28185"}}},
		{Name: "광주", Districts: []District{{"서구", "29140"}}},
		{Name: "대전", Districts: []District{{"유성구", "30200"}}},
		{Name: "울산", Districts: []District{{"남구", "31140"}}},
		{Name: "세종", Districts: []District{{"세종시", "36110"}}},
	}}
}
