package quran

import (
	"encoding/json"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

const selectAll = "all"

// SurahSelection is either every surah ("all") or an explicit, ordered list of
// surah IDs. The order of IDs is significant and never normalized.
type SurahSelection struct {
	All bool
	IDs []int
}

// AllSurahs selects every available audio file.
func AllSurahs() SurahSelection {
	return SurahSelection{All: true}
}

// SurahList selects the given surahs in the given order.
func SurahList(ids ...int) SurahSelection {
	return SurahSelection{IDs: ids}
}

func (s SurahSelection) String() string {
	if s.All {
		return selectAll
	}
	parts := make([]string, len(s.IDs))
	for i, id := range s.IDs {
		parts[i] = fmt.Sprintf("%d", id)
	}
	return strings.Join(parts, ",")
}

func (s SurahSelection) MarshalJSON() ([]byte, error) {
	if s.All {
		return json.Marshal(selectAll)
	}
	if s.IDs == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(s.IDs)
}

func (s *SurahSelection) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err == nil {
		return s.fromString(str)
	}

	var ids []int
	if err := json.Unmarshal(data, &ids); err != nil {
		return fmt.Errorf("surahs must be %q or a list of surah numbers: %w", selectAll, err)
	}
	*s = SurahSelection{IDs: ids}
	return nil
}

func (s SurahSelection) MarshalYAML() (interface{}, error) {
	if s.All {
		return selectAll, nil
	}
	return s.IDs, nil
}

func (s *SurahSelection) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		return s.fromString(node.Value)
	}

	var ids []int
	if err := node.Decode(&ids); err != nil {
		return fmt.Errorf("surahs must be %q or a list of surah numbers: %w", selectAll, err)
	}
	*s = SurahSelection{IDs: ids}
	return nil
}

func (s *SurahSelection) fromString(str string) error {
	if !strings.EqualFold(strings.TrimSpace(str), selectAll) {
		return fmt.Errorf("unknown surah selection %q", str)
	}
	*s = SurahSelection{All: true}
	return nil
}
