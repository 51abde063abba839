package odb

import "math"

type locationKey struct {
	instance         string
	element          int
	node             int
	integrationPoint int
}

func magnitude(data []float64) float64 {
	if len(data) == 1 {
		return math.Abs(data[0])
	}
	var sum float64
	for _, d := range data {
		sum += d * d
	}
	return math.Sqrt(sum)
}

// MaxEnvelope reduces a sequence of field outputs to the value of maximum
// magnitude at every sample location. Section points are collapsed. The
// first output holds the envelope, the second the index of the input
// field each envelope value was taken from.
func MaxEnvelope(fields []*FieldOutput) []*FieldOutput {
	if len(fields) == 0 {
		return nil
	}
	var (
		index  = make(map[locationKey]int)
		values []FieldValue
		source []int
		best   []float64
	)
	for ifield, fo := range fields {
		for _, v := range fo.Values {
			key := locationKey{v.Instance, v.ElementLabel, v.NodeLabel, v.IntegrationPoint}
			m := magnitude(v.Data)
			i, ok := index[key]
			if !ok {
				index[key] = len(values)
				v.SectionPoint = SectionPoint{}
				values = append(values, v)
				source = append(source, ifield)
				best = append(best, m)
				continue
			}
			if m > best[i] {
				v.SectionPoint = SectionPoint{}
				values[i] = v
				source[i] = ifield
				best[i] = m
			}
		}
	}
	envelope := fields[0].derive(values)
	criterion := make([]FieldValue, len(values))
	for i, v := range values {
		v.Data = []float64{float64(source[i])}
		criterion[i] = v
	}
	indexField := fields[0].derive(criterion)
	indexField.Name = fields[0].Name + " envelope index"
	indexField.Type = Scalar
	indexField.ComponentLabels = nil
	return []*FieldOutput{envelope, indexField}
}
