package ledger

import (
	"entgo.io/ent/dialect/sql/schema"
	"entgo.io/ent/schema/field"
)

const (
	runsTableName     = "runs"
	outcomesTableName = "job_outcomes"
)

var (
	// RunsColumns holds the columns for the "runs" table.
	RunsColumns = []*schema.Column{
		{Name: "id", Type: field.TypeString, Size: 64},
		{Name: "source", Type: field.TypeString, Size: 2048},
		{Name: "output", Type: field.TypeString, Size: 2048},
		{Name: "device", Type: field.TypeString, Size: 16},
		{Name: "workers", Type: field.TypeInt},
		{Name: "timeout_seconds", Type: field.TypeInt},
		{Name: "status", Type: field.TypeString, Size: 16},
		{Name: "started_at", Type: field.TypeInt64},
		{Name: "finished_at", Type: field.TypeInt64, Nullable: true},
		{Name: "total_docs", Type: field.TypeInt, Default: 0},
		{Name: "processed_docs", Type: field.TypeInt, Default: 0},
		{Name: "failed_docs", Type: field.TypeInt, Default: 0},
		{Name: "timeout_docs", Type: field.TypeInt, Default: 0},
		{Name: "success_rate", Type: field.TypeFloat64, Default: 0},
	}
	// RunsTable holds the schema information for the "runs" table.
	RunsTable = &schema.Table{
		Name:       runsTableName,
		Columns:    RunsColumns,
		PrimaryKey: []*schema.Column{RunsColumns[0]},
	}

	// JobOutcomesColumns holds the columns for the "job_outcomes" table.
	JobOutcomesColumns = []*schema.Column{
		{Name: "job_id", Type: field.TypeString, Size: 64},
		{Name: "run_id", Type: field.TypeString, Size: 64},
		{Name: "source_path", Type: field.TypeString, Size: 2048},
		{Name: "status", Type: field.TypeString, Size: 16},
		{Name: "error_kind", Type: field.TypeString, Size: 64, Nullable: true},
		{Name: "error_class", Type: field.TypeString, Size: 64, Nullable: true},
		{Name: "error_message", Type: field.TypeString, Size: 2147483647, Nullable: true},
		{Name: "artifacts", Type: field.TypeString, Size: 2147483647},
		{Name: "duration_ms", Type: field.TypeInt64},
		{Name: "recorded_at", Type: field.TypeInt64},
	}
	// JobOutcomesTable holds the schema information for the "job_outcomes" table.
	JobOutcomesTable = &schema.Table{
		Name:       outcomesTableName,
		Columns:    JobOutcomesColumns,
		PrimaryKey: []*schema.Column{JobOutcomesColumns[0]},
		ForeignKeys: []*schema.ForeignKey{
			{
				Symbol:     "job_outcomes_runs_outcomes",
				Columns:    []*schema.Column{JobOutcomesColumns[1]},
				RefColumns: []*schema.Column{RunsColumns[0]},
				OnDelete:   schema.Cascade,
			},
		},
		Indexes: []*schema.Index{
			{
				Name:    "joboutcome_run_id_source_path",
				Unique:  false,
				Columns: []*schema.Column{JobOutcomesColumns[1], JobOutcomesColumns[2]},
			},
		},
	}
	// Tables holds all the tables in the schema.
	Tables = []*schema.Table{
		RunsTable,
		JobOutcomesTable,
	}
)

func init() {
	JobOutcomesTable.ForeignKeys[0].RefTable = RunsTable
}
