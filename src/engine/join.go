package engine

import (
	"fmt"

	hashindex "tabledb/src/hash_index"
)

// JoinTables is an equi-join of two tables on a field both define by name.
//
// The result is exactly what a nested loop over (record1, record2) would
// produce: pairs whose values for fieldName are Equal, in table1 order and
// then table2 order, each merged as record1's data overlaid by record2's.
// Records lacking the field join with nothing. Candidate partners are found
// through a hash index over table2's keys rather than a full scan.
func (db *Database) JoinTables(table1Name, table2Name, fieldName string) ([]map[string]Value, error) {
	table1, err := db.table(table1Name)
	if err != nil {
		return nil, err
	}
	table2, err := db.table(table2Name)
	if err != nil {
		return nil, err
	}

	if _, ok := table1.Field(fieldName); !ok {
		return nil, fmt.Errorf("%w: common field '%s' in table '%s'", ErrFieldNotFound, fieldName, table1Name)
	}
	if _, ok := table2.Field(fieldName); !ok {
		return nil, fmt.Errorf("%w: common field '%s' in table '%s'", ErrFieldNotFound, fieldName, table2Name)
	}

	records1 := table1.records
	records2 := table2.records

	index := hashindex.Build(len(records2), func(i int) ([]byte, bool) {
		v, ok := records2[i].Data[fieldName]
		if !ok {
			return nil, false
		}
		return v.hashKey()
	})

	var joined []map[string]Value
	for _, r1 := range records1 {
		key1, ok := r1.Data[fieldName]
		if !ok {
			continue
		}
		k, ok := key1.hashKey()
		if !ok {
			continue
		}
		for _, j := range index.Candidates(k) {
			r2 := records2[j]
			if !key1.Equal(r2.Data[fieldName]) {
				continue
			}
			merged := make(map[string]Value, len(r1.Data)+len(r2.Data))
			for name, v := range r1.Data {
				merged[name] = v
			}
			for name, v := range r2.Data {
				merged[name] = v
			}
			joined = append(joined, merged)
		}
	}

	if len(joined) == 0 {
		return nil, fmt.Errorf("%w: '%s' and '%s' on '%s'", ErrEmptyJoinResult, table1Name, table2Name, fieldName)
	}
	return joined, nil
}
