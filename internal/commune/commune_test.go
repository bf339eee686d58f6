package commune

import "testing"

func TestNormalize(t *testing.T) {
	cases := map[string]string{
		"  Cocody ":    "cocody",
		"Port Bouët":   "port-bouet",
		"PORT-BOUET":   "port-bouet",
		"Attécoubé":    "attecoube",
		"grand_bassam": "grand-bassam",
		"":             "",
	}
	for in, want := range cases {
		if got := Normalize(in); got != want {
			t.Fatalf("Normalize(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestIsCapital(t *testing.T) {
	for _, name := range []string{"Abidjan", "abidjan", " YOPOUGON", "Adjamé", "Port-Bouët", "plateau"} {
		if !IsCapital(name) {
			t.Fatalf("expected %q to be a capital commune", name)
		}
	}
	for _, name := range []string{"", "Bouaké", "Daloa", "Man", "Grand-Bassam", "Dabou", "Jacqueville", "Grand-Lahou"} {
		if IsCapital(name) {
			t.Fatalf("expected %q not to be a capital commune", name)
		}
	}
}

func TestSameCity(t *testing.T) {
	if !SameCity("Bouaké", "bouake") {
		t.Fatalf("expected accent-insensitive match")
	}
	if SameCity("", "") {
		t.Fatalf("empty names must not match")
	}
	if SameCity("Daloa", "Man") {
		t.Fatalf("different cities must not match")
	}
}

func TestTitleAndDisplayDestination(t *testing.T) {
	if got := Title("bouaké"); got != "Bouaké" {
		t.Fatalf("unexpected title: %q", got)
	}
	if got := Title("san  pedro"); got != "San Pedro" {
		t.Fatalf("unexpected title: %q", got)
	}
	if got := DisplayDestination("cocody"); got != CapitalName {
		t.Fatalf("expected capital name, got %q", got)
	}
	if got := DisplayDestination("man"); got != "Man" {
		t.Fatalf("unexpected destination display: %q", got)
	}
}

func TestCapitalCommunes_ReturnsCopy(t *testing.T) {
	list := CapitalCommunes()
	if len(list) != len(capitalCommunes) {
		t.Fatalf("expected %d communes, got %d", len(capitalCommunes), len(list))
	}
	list[0] = "mutated"
	if IsCapital("mutated") {
		t.Fatalf("mutating the copy must not change the set")
	}
}
