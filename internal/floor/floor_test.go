package floor

import "testing"

func TestParseValid(t *testing.T) {
	cases := []struct {
		text string
		axis int
	}{
		{"1", 1},
		{"999", 999},
		{"B1", -1},
		{"B99", -99},
		{"42", 42},
	}
	for _, c := range cases {
		f, err := Parse(c.text)
		if err != nil {
			t.Fatalf("Parse(%q): unexpected error: %v", c.text, err)
		}
		if f.Axis() != c.axis {
			t.Errorf("Parse(%q).Axis() = %d, want %d", c.text, f.Axis(), c.axis)
		}
		if f.String() != c.text {
			t.Errorf("Parse(%q).String() = %q, want %q", c.text, f.String(), c.text)
		}
	}
}

func TestParseInvalid(t *testing.T) {
	for _, text := range []string{"", "0", "B0", "B100", "1000", "b1", "B", "-1", "1.5", "B1B"} {
		if _, err := Parse(text); err == nil {
			t.Errorf("Parse(%q): expected error, got nil", text)
		}
	}
}

func TestGetDirection(t *testing.T) {
	cases := []struct {
		src, dst string
		want     Direction
	}{
		{"3", "8", DirUp},
		{"8", "3", DirDown},
		{"4", "4", DirSame},
		{"B1", "1", DirUp},
		{"1", "B1", DirDown},
	}
	for _, c := range cases {
		src := MustParse(c.src)
		dst := MustParse(c.dst)
		if got := GetDirection(src, dst); got != c.want {
			t.Errorf("GetDirection(%q,%q) = %q, want %q", c.src, c.dst, got, c.want)
		}
	}
}

func TestStepSkipsZero(t *testing.T) {
	cases := []struct {
		current, dst, want string
	}{
		{"1", "3", "2"},
		{"B1", "B3", "B2"},
		{"1", "B2", "B1"},
		{"B1", "2", "1"},
		{"3", "3", "3"},
	}
	for _, c := range cases {
		got := Step(MustParse(c.current), MustParse(c.dst))
		if got.String() != c.want {
			t.Errorf("Step(%q,%q) = %q, want %q", c.current, c.dst, got.String(), c.want)
		}
	}
}

func TestAdjacentSkipsZero(t *testing.T) {
	up, err := Adjacent(MustParse("B1"), DirUp)
	if err != nil || up.String() != "1" {
		t.Errorf("Adjacent(B1, up) = %v, %v, want 1, nil", up, err)
	}
	down, err := Adjacent(MustParse("1"), DirDown)
	if err != nil || down.String() != "B1" {
		t.Errorf("Adjacent(1, down) = %v, %v, want B1, nil", down, err)
	}
	if _, err := Adjacent(MustParse("1"), DirSame); err == nil {
		t.Error("Adjacent(1, same): expected error")
	}
}

func TestInRange(t *testing.T) {
	lo, hi := MustParse("B5"), MustParse("20")
	for _, f := range []string{"B5", "B1", "1", "20"} {
		if !InRange(MustParse(f), lo, hi) {
			t.Errorf("InRange(%q, B5, 20) = false, want true", f)
		}
	}
	for _, f := range []string{"B6", "21"} {
		if InRange(MustParse(f), lo, hi) {
			t.Errorf("InRange(%q, B5, 20) = true, want false", f)
		}
	}
}
