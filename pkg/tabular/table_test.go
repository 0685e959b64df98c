package tabular

import (
	"fmt"
	"sync"
	"testing"

	"github.com/Sternrassler/launch-export/pkg/records"
)

func TestTable_ConcurrentAppend(t *testing.T) {
	table := NewTable("launches", records.Schema{"id", "name"})

	const workers = 5
	const perWorker = 200

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < perWorker; i++ {
				table.Append(records.Row{fmt.Sprint(w), fmt.Sprint(i)})
			}
		}(w)
	}
	wg.Wait()

	if got := table.Len(); got != workers*perWorker {
		t.Errorf("Len() = %d, want %d", got, workers*perWorker)
	}
}

func TestTable_RowsIsSnapshot(t *testing.T) {
	table := NewTable("tags", records.Schema{"id"})
	table.Append(records.Row{"1"}, records.Row{"2"})

	rows := table.Rows()
	table.Append(records.Row{"3"})

	if len(rows) != 2 {
		t.Errorf("snapshot length = %d, want 2", len(rows))
	}
	if table.Len() != 3 {
		t.Errorf("Len() = %d, want 3", table.Len())
	}
}

func TestTable_Accessors(t *testing.T) {
	schema := records.Schema{"a", "b"}
	table := NewTable("pads", schema)

	if table.Name() != "pads" {
		t.Errorf("Name() = %q", table.Name())
	}
	if len(table.Schema()) != 2 {
		t.Errorf("Schema() = %v", table.Schema())
	}
}
