package ml

import "testing"

func TestFeatureVectorFollowsSchemaOrder(t *testing.T) {
	sample := WineSample{
		FixedAcidity:       1,
		VolatileAcidity:    2,
		CitricAcid:         3,
		ResidualSugar:      4,
		Chlorides:          5,
		FreeSulfurDioxide:  6,
		TotalSulfurDioxide: 7,
		Density:            8,
		PH:                 9,
		Sulphates:          10,
		Alcohol:            11,
	}

	vector := FeatureVector(sample)
	if len(vector) != FeatureCount {
		t.Fatalf("expected %d values, got %d", FeatureCount, len(vector))
	}
	for i, v := range vector {
		if v != float64(i+1) {
			t.Fatalf("position %d (%s): expected %v, got %v", i, FeatureNames()[i], float64(i+1), v)
		}
	}

	values := FeatureMap(sample)
	for i, name := range FeatureNames() {
		if values[name] != vector[i] {
			t.Fatalf("%s: map has %v, vector has %v", name, values[name], vector[i])
		}
	}
}

func TestFeatureNamesReturnsCopy(t *testing.T) {
	names := FeatureNames()
	names[0] = "changed"
	if FeatureNames()[0] != "fixed_acidity" {
		t.Fatal("schema was mutated through the returned slice")
	}
}

func TestCheckFeatureNames(t *testing.T) {
	if err := checkFeatureNames(nil); err != nil {
		t.Fatalf("absent names should be accepted: %v", err)
	}
	if err := checkFeatureNames(FeatureNames()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := checkFeatureNames([]string{"alcohol"}); err == nil {
		t.Fatal("expected error for short name list")
	}
	swapped := FeatureNames()
	swapped[0], swapped[1] = swapped[1], swapped[0]
	if err := checkFeatureNames(swapped); err == nil {
		t.Fatal("expected error for reordered names")
	}
}
