package osm

import (
	"errors"
	"reflect"
	"strings"
	"testing"
)

func TestScanLine(t *testing.T) {
	tests := []struct {
		name        string
		line        string
		wantOK      bool
		wantName    string
		opening     bool
		selfClosing bool
		wantErr     error
	}{
		{"self-closing node", `  <node id="1" lat="1" lon="2"/>`, true, "node", true, true, nil},
		{"open way", `<way id="5">`, true, "way", true, false, nil},
		{"close way", `</way>`, true, "way", false, false, nil},
		{"compact nd", `<nd/>`, true, "nd", true, true, nil},
		{"crlf", "<node id=\"1\">\r\n", true, "node", true, false, nil},
		{"tab separated", "<tag\tk=\"a\" v=\"b\"/>", true, "tag", true, true, nil},
		{"no tag", `just text`, false, "", false, false, nil},
		{"blank", ``, false, "", false, false, nil},
		{"unterminated name", `<node`, true, "", false, false, ErrFormat},
		{"empty name", `< id="1">`, true, "", false, false, ErrFormat},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, ok := scanLine(tt.line)
			if ok != tt.wantOK {
				t.Fatalf("ok = %v, want %v", ok, tt.wantOK)
			}
			if !ok {
				return
			}
			if tt.wantErr != nil {
				if !errors.Is(rec.Err, tt.wantErr) {
					t.Errorf("err = %v, want %v", rec.Err, tt.wantErr)
				}
				return
			}
			if rec.Err != nil {
				t.Fatalf("unexpected error: %v", rec.Err)
			}
			if rec.Name != tt.wantName {
				t.Errorf("name = %q, want %q", rec.Name, tt.wantName)
			}
			if rec.Opening != tt.opening {
				t.Errorf("opening = %v, want %v", rec.Opening, tt.opening)
			}
			if rec.SelfClosing != tt.selfClosing {
				t.Errorf("selfClosing = %v, want %v", rec.SelfClosing, tt.selfClosing)
			}
		})
	}
}

func TestScannerLineNumbers(t *testing.T) {
	input := "<osm>\n\nplain text\n<node id=\"1\"/>\n</osm>"
	sc := NewScanner(strings.NewReader(input))

	var lines []int
	var names []string
	for sc.Scan() {
		lines = append(lines, sc.Record().Line)
		names = append(names, sc.Record().Name)
	}
	if err := sc.Err(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if want := []int{1, 4, 5}; !reflect.DeepEqual(lines, want) {
		t.Errorf("lines = %v, want %v", lines, want)
	}
	if want := []string{"osm", "node", "osm"}; !reflect.DeepEqual(names, want) {
		t.Errorf("names = %v, want %v", names, want)
	}
	if sc.Line() != 5 {
		t.Errorf("expected 5 lines consumed, got %d", sc.Line())
	}
}

func TestScannerLongLine(t *testing.T) {
	long := `<tag k="note" v="` + strings.Repeat("x", 200*1024) + `"/>`
	sc := NewScanner(strings.NewReader(long + "\n"))

	if !sc.Scan() {
		t.Fatalf("expected a record, err = %v", sc.Err())
	}
	attrs := Attributes(sc.Record().Attrs)
	if len(attrs["v"]) != 200*1024 {
		t.Errorf("expected full value, got %d bytes", len(attrs["v"]))
	}
}

func TestVisitAttributes(t *testing.T) {
	tests := []struct {
		name  string
		text  string
		want  map[string]string
		count int
	}{
		{"double quotes", `id="1" lat="2.5" lon="-3"/>`, map[string]string{"id": "1", "lat": "2.5", "lon": "-3"}, 3},
		{"single quotes", `k='name' v='Joe"s'/>`, map[string]string{"k": "name", "v": `Joe"s`}, 2},
		{"spaces around equals", `k = "a"`, map[string]string{}, 0},
		{"key padding", `  k="a"   v="b"`, map[string]string{"k": "a", "v": "b"}, 2},
		{"entities verbatim", `v="Fish &amp; Chips"`, map[string]string{"v": "Fish &amp; Chips"}, 1},
		{"unquoted value stops", `k=a v="b"`, map[string]string{}, 0},
		{"missing close quote", `k="a" v="b`, map[string]string{"k": "a"}, 1},
		{"empty value", `v=""`, map[string]string{"v": ""}, 1},
		{"no pairs", `>`, map[string]string{}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := make(map[string]string)
			n := VisitAttributes(tt.text, func(k, v string) {
				got[k] = v
			})
			if n != tt.count {
				t.Errorf("count = %d, want %d", n, tt.count)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("attrs = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestVisitAttributesOrder(t *testing.T) {
	var keys []string
	VisitAttributes(`b="1" a="2" b="3"`, func(k, v string) {
		keys = append(keys, k+"="+v)
	})
	if want := []string{"b=1", "a=2", "b=3"}; !reflect.DeepEqual(keys, want) {
		t.Errorf("keys = %v, want %v", keys, want)
	}

	if got := Attributes(`b="1" a="2" b="3"`)["b"]; got != "3" {
		t.Errorf("expected later duplicate to win, got %q", got)
	}
}

func TestScannerLineLimit(t *testing.T) {
	input := "<node id=\"1\" lat=\"1\" lon=\"1\"/>\n" +
		strings.Repeat("x", 10*1024*1024) + "\n" +
		"<nd ref=\"2\"/>\n" +
		"<tag k=\"a\" v=\"" + strings.Repeat("y", 100) + "\"/>"
	sc := NewScanner(strings.NewReader(input))
	sc.SetMaxLineBytes(64)

	var recs []Record
	for sc.Scan() {
		recs = append(recs, sc.Record())
	}
	if err := sc.Err(); err != nil {
		t.Fatalf("unexpected read error: %v", err)
	}
	if len(recs) != 4 {
		t.Fatalf("expected 4 records, got %d: %+v", len(recs), recs)
	}

	if recs[0].Name != "node" || recs[0].Err != nil {
		t.Errorf("record 0 = %+v", recs[0])
	}
	if recs[1].Line != 2 || !errors.Is(recs[1].Err, ErrLineTooLong) || !errors.Is(recs[1].Err, ErrFormat) {
		t.Errorf("record 1 = %+v, want line 2 too long", recs[1])
	}
	if recs[2].Line != 3 || recs[2].Name != "nd" {
		t.Errorf("record 2 = %+v, reading should resume after the long line", recs[2])
	}
	// the final line has no newline and is still measured
	if recs[3].Line != 4 || !errors.Is(recs[3].Err, ErrLineTooLong) {
		t.Errorf("record 3 = %+v, want line 4 too long", recs[3])
	}
}

func TestScannerDefaultLineLimit(t *testing.T) {
	sc := NewScanner(strings.NewReader(strings.Repeat("z", DefaultMaxLineBytes+1)))
	sc.SetMaxLineBytes(0)
	if !sc.Scan() {
		t.Fatalf("expected a record, err = %v", sc.Err())
	}
	if !errors.Is(sc.Record().Err, ErrLineTooLong) {
		t.Errorf("expected ErrLineTooLong, got %v", sc.Record().Err)
	}
	if sc.Scan() {
		t.Error("expected end of input")
	}
}
