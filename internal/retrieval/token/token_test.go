package token

import (
	"reflect"
	"testing"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{
			name:  "lowercases and strips punctuation",
			input: "Soil pH: 5.5, ACIDIC!",
			want:  []string{"soil", "ph", "acidic"},
		},
		{
			name:  "removes stop words",
			input: "the nitrogen in the soil is low",
			want:  []string{"nitrogen", "soil", "low"},
		},
		{
			name:  "drops single-character tokens",
			input: "vitamin b and k uptake",
			want:  []string{"vitamin", "uptake"},
		},
		{
			name:  "keeps digits",
			input: "apply 25 kg of urea 46-0-0",
			want:  []string{"apply", "25", "kg", "urea", "46"},
		},
		{
			name:  "empty input",
			input: "",
			want:  []string{},
		},
		{
			name:  "whitespace only",
			input: " \t\n ",
			want:  []string{},
		},
		{
			name:  "all stop words",
			input: "the and of to",
			want:  []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Normalize(tt.input)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Normalize(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestNormalizeDeterministic(t *testing.T) {
	input := "Phosphorus deficiency shows as purple discoloration on older leaves"
	first := Normalize(input)
	for i := 0; i < 10; i++ {
		if got := Normalize(input); !reflect.DeepEqual(got, first) {
			t.Fatalf("run %d produced %v, first run produced %v", i, got, first)
		}
	}
}

func TestNormalizeNoStemming(t *testing.T) {
	got := Normalize("running runs run")
	want := []string{"running", "runs", "run"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Normalize should not stem: got %v, want %v", got, want)
	}
}

func TestIsStopWord(t *testing.T) {
	if !IsStopWord("the") {
		t.Error(`IsStopWord("the") = false, want true`)
	}
	if IsStopWord("nitrogen") {
		t.Error(`IsStopWord("nitrogen") = true, want false`)
	}
}
