package demo

import "testing"

func TestDataset_Shape(t *testing.T) {
	data := Dataset()

	if len(data.Hourly) != 24 {
		t.Fatalf("expected exactly 24 hourly entries, got %d", len(data.Hourly))
	}
	if len(data.Daily) != 7 {
		t.Fatalf("expected exactly 7 daily entries, got %d", len(data.Daily))
	}

	for i := 1; i < len(data.Hourly); i++ {
		if data.Hourly[i].Time <= data.Hourly[i-1].Time {
			t.Fatalf("hourly timestamps not strictly increasing at index %d", i)
		}
	}
	for i := 1; i < len(data.Daily); i++ {
		if data.Daily[i].Date <= data.Daily[i-1].Date {
			t.Fatalf("daily timestamps not strictly increasing at index %d", i)
		}
	}
}

func TestDataset_PopIsPercentage(t *testing.T) {
	data := Dataset()
	for _, h := range data.Hourly {
		if h.Pop < 0 || h.Pop > 100 {
			t.Fatalf("hourly pop outside [0,100]: %v", h.Pop)
		}
	}
	for _, d := range data.Daily {
		if d.Pop < 0 || d.Pop > 100 {
			t.Fatalf("daily pop outside [0,100]: %v", d.Pop)
		}
	}
}

func TestDataset_FixedCity(t *testing.T) {
	cur := Dataset().Current
	if cur.Name != "Hà Nội" || cur.Country != "VN" {
		t.Fatalf("unexpected demo city: %s, %s", cur.Name, cur.Country)
	}
	if cur.Coords.Lat != 21.0285 || cur.Coords.Lon != 105.8542 {
		t.Fatalf("unexpected demo coordinates: %+v", cur.Coords)
	}
}

func TestCities_FixedList(t *testing.T) {
	cities := Cities()
	if len(cities) != 5 {
		t.Fatalf("expected 5 demo cities, got %d", len(cities))
	}
	for _, c := range cities {
		if c.Country != "VN" {
			t.Fatalf("unexpected country in demo list: %+v", c)
		}
	}
}

func TestSearchCities_SubstringMatch(t *testing.T) {
	got := SearchCities("hải")
	if len(got) != 1 || got[0].Name != "Hải Phòng" {
		t.Fatalf("unexpected matches: %+v", got)
	}
	if got := SearchCities("zzz"); len(got) != 0 {
		t.Fatalf("expected no matches, got %+v", got)
	}
}
