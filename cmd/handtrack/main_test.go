package main

import (
	"bytes"
	"errors"
	"flag"
	"io"
	"strings"
	"testing"

	"github.com/ayusman/handtrack/internal/config"
	"github.com/ayusman/handtrack/internal/detector"
	"github.com/ayusman/handtrack/internal/pipeline"
	"github.com/ayusman/handtrack/internal/tracker"
)

func TestParseFlags(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		wantErr bool
		check   func(t *testing.T, o options)
	}{
		{
			name: "defaults come from config",
			args: nil,
			check: func(t *testing.T, o options) {
				if o.Config.Capture.Source != "0" || o.Config.Detector.MaxHands != 2 {
					t.Errorf("unexpected defaults %+v", o.Config)
				}
				if o.Landmark != detector.ThumbTip || o.Hand != 0 {
					t.Errorf("landmark/hand = %d/%d", o.Landmark, o.Hand)
				}
				if o.Joint != [3]int{detector.IndexMCP, detector.IndexPIP, detector.IndexDIP} {
					t.Errorf("joint = %v", o.Joint)
				}
				if !o.Draw || o.Window || o.Mock {
					t.Errorf("unexpected toggles %+v", o)
				}
			},
		},
		{
			name: "flags override config",
			args: []string{"-camera", "clip.mp4", "-mode", "static", "-max-hands", "1", "-record", "runs.db", "-serve", ":9000", "-joint", "0,9,12"},
			check: func(t *testing.T, o options) {
				if o.Config.Capture.Source != "clip.mp4" {
					t.Errorf("source = %s", o.Config.Capture.Source)
				}
				if o.Config.Detector.Mode != detector.ModeStaticImage || o.Config.Detector.MaxHands != 1 {
					t.Errorf("detector = %+v", o.Config.Detector)
				}
				if o.Config.DBPath != "runs.db" || o.Config.Addr != ":9000" {
					t.Errorf("db/addr = %s/%s", o.Config.DBPath, o.Config.Addr)
				}
				if o.Joint != [3]int{0, 9, 12} {
					t.Errorf("joint = %v", o.Joint)
				}
			},
		},
		{name: "bad mode", args: []string{"-mode", "burst"}, wantErr: true},
		{name: "bad joint", args: []string{"-joint", "1,2"}, wantErr: true},
		{name: "landmark out of range", args: []string{"-landmark", "21"}, wantErr: true},
		{name: "negative hand", args: []string{"-hand", "-1"}, wantErr: true},
		{name: "invalid confidence", args: []string{"-detection-confidence", "1.5"}, wantErr: true},
		{name: "fps above limit", args: []string{"-fps", "5000000000"}, wantErr: true},
		{name: "stray argument", args: []string{"extra"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o, err := parseFlagsTo(tt.args, config.Default(), io.Discard)
			if (err != nil) != tt.wantErr {
				t.Fatalf("parseFlags() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.check != nil {
				tt.check(t, o)
			}
		})
	}
}

func TestParseFlags_Help(t *testing.T) {
	var out bytes.Buffer
	_, err := parseFlagsTo([]string{"-h"}, config.Default(), &out)
	if !errors.Is(err, flag.ErrHelp) {
		t.Fatalf("expected flag.ErrHelp, got %v", err)
	}
	if !strings.Contains(out.String(), "handtrack angle x1,y1 x2,y2 x3,y3") {
		t.Errorf("usage should mention the angle subcommand:\n%s", out.String())
	}
}

func TestParseJoint(t *testing.T) {
	tests := []struct {
		in      string
		want    [3]int
		wantErr bool
	}{
		{"5,6,7", [3]int{5, 6, 7}, false},
		{" 0, 1 ,2", [3]int{0, 1, 2}, false},
		{"1,2,3,4", [3]int{}, true},
		{"a,b,c", [3]int{}, true},
		{"0,1,21", [3]int{}, true},
	}

	for _, tt := range tests {
		got, err := parseJoint(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("parseJoint(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if !tt.wantErr && got != tt.want {
			t.Errorf("parseJoint(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestRunAngle(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		wantCode int
		wantOut  string
	}{
		{"straight", []string{"0,0", "1,0", "2,0"}, 0, "180.00\n"},
		{"right angle", []string{"1,0", "0,0", "0,1"}, 0, "90.00\n"},
		{"degenerate", []string{"1,1", "1,1", "2,2"}, 1, ""},
		{"bad point", []string{"1;1", "0,0", "0,1"}, 2, ""},
		{"too few points", []string{"0,0", "1,0"}, 2, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			if code := runAngle(tt.args, &out); code != tt.wantCode {
				t.Errorf("exit code = %d, want %d", code, tt.wantCode)
			}
			if out.String() != tt.wantOut {
				t.Errorf("output = %q, want %q", out.String(), tt.wantOut)
			}
		})
	}
}

func TestPrinter(t *testing.T) {
	lms := make([]tracker.Landmark, 0, detector.NumLandmarks)
	for id := 0; id < detector.NumLandmarks; id++ {
		lms = append(lms, tracker.Landmark{ID: id, X: 10 * id, Y: 0})
	}
	// Bend the index finger at the PIP joint.
	lms[detector.IndexDIP] = tracker.Landmark{ID: detector.IndexDIP, X: lms[detector.IndexPIP].X, Y: 50}

	opts := options{Landmark: detector.ThumbTip, Joint: [3]int{detector.IndexMCP, detector.IndexPIP, detector.IndexDIP}}

	t.Run("prints landmark and angle", func(t *testing.T) {
		var out bytes.Buffer
		newPrinter(&out, opts).Print(pipeline.Snapshot{Seq: 3, Hands: []pipeline.HandSnapshot{{Landmarks: lms}}})

		want := "frame 3: landmark 4 at (40, 0), angle 5-6-7 = 90.0\n"
		if out.String() != want {
			t.Errorf("output = %q, want %q", out.String(), want)
		}
	})

	t.Run("silent without the selected hand", func(t *testing.T) {
		var out bytes.Buffer
		o := opts
		o.Hand = 1
		newPrinter(&out, o).Print(pipeline.Snapshot{Seq: 1, Hands: []pipeline.HandSnapshot{{Landmarks: lms}}})

		if out.Len() != 0 {
			t.Errorf("expected no output, got %q", out.String())
		}
	})
}
