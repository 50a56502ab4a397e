package mastery

import "testing"

func TestLevelForStreak(t *testing.T) {
	tests := []struct {
		streak    int
		attempted bool
		want      Level
	}{
		{0, false, LevelNotStarted},
		{0, true, LevelLearning},
		{1, true, LevelLearning},
		{2, true, LevelLearning},
		{3, true, LevelFamiliar},
		{4, true, LevelProficient},
		{5, true, LevelMastered},
		{12, true, LevelMastered},
	}
	for _, tt := range tests {
		got := LevelForStreak(tt.streak, tt.attempted)
		if got != tt.want {
			t.Errorf("LevelForStreak(%d, %v) = %v, want %v", tt.streak, tt.attempted, got, tt.want)
		}
	}
}

func TestLevelForStreak_MonotonicWhileStreakGrows(t *testing.T) {
	prev := LevelForStreak(0, true)
	for streak := 1; streak <= 10; streak++ {
		got := LevelForStreak(streak, true)
		if got < prev {
			t.Fatalf("level dropped from %v to %v at streak %d", prev, got, streak)
		}
		prev = got
	}
}

func TestParseLevel_RoundTrip(t *testing.T) {
	for _, l := range Levels {
		got, err := ParseLevel(l.String())
		if err != nil {
			t.Fatalf("ParseLevel(%q): %v", l.String(), err)
		}
		if got != l {
			t.Errorf("ParseLevel(%q) = %v, want %v", l.String(), got, l)
		}
	}
}

func TestParseLevel_Unknown(t *testing.T) {
	if _, err := ParseLevel("expert"); err == nil {
		t.Error("expected error for unknown level")
	}
}

func TestLevelString_OutOfRange(t *testing.T) {
	if got := Level(42).String(); got != "level(42)" {
		t.Errorf("String() = %q", got)
	}
}
