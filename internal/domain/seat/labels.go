package seat

import (
	"fmt"
	"sort"
)

// MaxLabelLength は座席ラベルの最大長（seats.label の列長と一致させる）
const MaxLabelLength = 16

const maxRows = 26

// GenerateLabels は rows 行 × perRow 列の座席ラベルを生成する（A1, A2, ..., B1, ...）
func GenerateLabels(rows, perRow int) ([]string, error) {
	if rows <= 0 || rows > maxRows || perRow <= 0 {
		return nil, ErrInvalidLayout
	}
	labels := make([]string, 0, rows*perRow)
	for r := 0; r < rows; r++ {
		row := string(rune('A' + r))
		for n := 1; n <= perRow; n++ {
			labels = append(labels, fmt.Sprintf("%s%d", row, n))
		}
	}
	return labels, nil
}

// ValidateLabel は座席ラベルの形式を検証する
func ValidateLabel(label string) error {
	if label == "" {
		return ErrLabelRequired
	}
	if len(label) > MaxLabelLength {
		return ErrLabelTooLong
	}
	return nil
}

// SortedLabels はラベルを昇順にソートしたコピーを返す
func SortedLabels(labels []string) []string {
	sorted := make([]string, len(labels))
	copy(sorted, labels)
	sort.Strings(sorted)
	return sorted
}

// Difference は want のうち got に含まれないラベルを昇順で返す
func Difference(want, got []string) []string {
	seen := make(map[string]struct{}, len(got))
	for _, l := range got {
		seen[l] = struct{}{}
	}
	var missing []string
	for _, l := range want {
		if _, ok := seen[l]; !ok {
			missing = append(missing, l)
		}
	}
	sort.Strings(missing)
	return missing
}
