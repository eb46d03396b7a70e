package model

import (
	"encoding/json"
	"testing"
)

func TestNormalizeBlockType(t *testing.T) {
	tests := []struct {
		raw    string
		want   string
		wantOK bool
	}{
		{raw: "text", want: BlockTypeText, wantOK: true},
		{raw: "image", want: BlockTypeImage, wantOK: true},
		{raw: "map", want: BlockTypeMap, wantOK: true},
		{raw: "photo", want: BlockTypeImage, wantOK: true}, // legacy alias
		{raw: "PHOTO", want: BlockTypeImage, wantOK: true},
		{raw: "  Text  ", want: BlockTypeText, wantOK: true},
		{raw: "video", want: "", wantOK: false},
		{raw: "", want: "", wantOK: false},
	}

	for _, tt := range tests {
		got, ok := NormalizeBlockType(tt.raw)
		if got != tt.want || ok != tt.wantOK {
			t.Errorf("NormalizeBlockType(%q) = (%q, %v), want (%q, %v)", tt.raw, got, ok, tt.want, tt.wantOK)
		}
	}
}

func TestReorderDayGroupsRequest_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		want    []int64
		wantErr bool
	}{
		{name: "bare array", body: `[3, 1, 2]`, want: []int64{3, 1, 2}},
		{name: "bare array with whitespace", body: "\n  [5, 4]", want: []int64{5, 4}},
		{name: "ids wrapper", body: `{"ids": [2, 1]}`, want: []int64{2, 1}},
		{name: "empty array", body: `[]`, want: []int64{}},
		{name: "not ids", body: `{"days": [1]}`, want: nil},
		{name: "malformed", body: `[1, 2`, wantErr: true},
		{name: "wrong element type", body: `["a"]`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var req ReorderDayGroupsRequest
			err := json.Unmarshal([]byte(tt.body), &req)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected an error")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(req.IDs) != len(tt.want) {
				t.Fatalf("IDs = %v, want %v", req.IDs, tt.want)
			}
			for i := range tt.want {
				if req.IDs[i] != tt.want[i] {
					t.Errorf("IDs[%d] = %d, want %d", i, req.IDs[i], tt.want[i])
				}
			}
		})
	}
}
