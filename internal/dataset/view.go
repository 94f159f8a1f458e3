package dataset

import "sort"

// ViewModel holds one loaded dataset plus the active filter state and
// memoizes the derived views. It is owned by a single request or UI
// goroutine and is not safe for concurrent use.
type ViewModel struct {
	stocks  []StockRecord
	version uint64

	industry string
	minScore float64

	industriesVersion uint64
	industriesCache   []string

	filteredVersion  uint64
	filteredIndustry string
	filteredMinScore float64
	filteredCache    []StockRecord
	filteredValid    bool
}

// NewViewModel creates an empty view model with no filters applied.
func NewViewModel() *ViewModel {
	return &ViewModel{}
}

// SetStocks replaces the dataset and resets both filters to their
// neutral values.
func (vm *ViewModel) SetStocks(stocks []StockRecord) {
	vm.stocks = stocks
	vm.version++
	vm.industry = ""
	vm.minScore = 0
	vm.filteredValid = false
}

// Stocks returns the full unfiltered dataset.
func (vm *ViewModel) Stocks() []StockRecord {
	return vm.stocks
}

// SetIndustry sets the industry filter. An empty string matches all
// industries.
func (vm *ViewModel) SetIndustry(industry string) {
	vm.industry = industry
}

// Industry returns the active industry filter.
func (vm *ViewModel) Industry() string {
	return vm.industry
}

// SetMinScore sets the minimum total score filter.
func (vm *ViewModel) SetMinScore(min float64) {
	vm.minScore = min
}

// MinScore returns the active minimum score filter.
func (vm *ViewModel) MinScore() float64 {
	return vm.minScore
}

// Industries returns the distinct non-empty industry values present in
// the dataset, sorted ascending. The result is recomputed only when
// the dataset changes.
func (vm *ViewModel) Industries() []string {
	if vm.industriesCache != nil && vm.industriesVersion == vm.version {
		return vm.industriesCache
	}

	seen := make(map[string]struct{})
	industries := make([]string, 0)
	for _, s := range vm.stocks {
		if s.Industry == "" {
			continue
		}
		if _, ok := seen[s.Industry]; ok {
			continue
		}
		seen[s.Industry] = struct{}{}
		industries = append(industries, s.Industry)
	}
	sort.Strings(industries)

	vm.industriesCache = industries
	vm.industriesVersion = vm.version
	return industries
}

// FilteredStocks returns the records matching the active filters. A
// record passes when the industry filter is empty or equals its
// industry, and its total score is at least the minimum score. The
// result is recomputed only when the dataset or a filter changes.
func (vm *ViewModel) FilteredStocks() []StockRecord {
	if vm.filteredValid &&
		vm.filteredVersion == vm.version &&
		vm.filteredIndustry == vm.industry &&
		vm.filteredMinScore == vm.minScore {
		return vm.filteredCache
	}

	filtered := make([]StockRecord, 0, len(vm.stocks))
	for _, s := range vm.stocks {
		if vm.industry != "" && s.Industry != vm.industry {
			continue
		}
		if s.TotalScore < vm.minScore {
			continue
		}
		filtered = append(filtered, s)
	}

	vm.filteredCache = filtered
	vm.filteredVersion = vm.version
	vm.filteredIndustry = vm.industry
	vm.filteredMinScore = vm.minScore
	vm.filteredValid = true
	return filtered
}
