package watchbill

import "testing"

func TestParseAssignmentKey(t *testing.T) {
	dayID, stationID, err := parseAssignmentKey("42_7")
	if err != nil {
		t.Fatalf("parseAssignmentKey() error: %v", err)
	}
	if dayID != 42 || stationID != 7 {
		t.Errorf("got (%d, %d), want (42, 7)", dayID, stationID)
	}
}

func TestParseAssignmentKey_Malformed(t *testing.T) {
	cases := []string{"", "42", "42-7", "abc_7", "42_", "42_7_99"}
	for _, c := range cases {
		if _, _, err := parseAssignmentKey(c); err == nil {
			t.Errorf("parseAssignmentKey(%q) expected an error, got none", c)
		}
	}
}
