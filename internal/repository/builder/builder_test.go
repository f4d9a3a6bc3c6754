package builder

import (
	"reflect"
	"testing"
)

func assertQuery(t *testing.T, gotSQL string, gotArgs []interface{}, wantSQL string, wantArgs ...interface{}) {
	t.Helper()
	if gotSQL != wantSQL {
		t.Errorf("expected %s, got %s", wantSQL, gotSQL)
	}
	if len(wantArgs) == 0 && len(gotArgs) == 0 {
		return
	}
	if !reflect.DeepEqual(gotArgs, wantArgs) {
		t.Errorf("expected args %v, got %v", wantArgs, gotArgs)
	}
}

func TestSQLBuilder(t *testing.T) {
	t.Run("Select", func(t *testing.T) {
		query, args := NewSQLBuilder().Select("id", "email").From("employees").Where("id = ?", "e1").Build()
		assertQuery(t, query, args, "SELECT id, email FROM employees WHERE id = $1", "e1")
	})

	t.Run("Insert", func(t *testing.T) {
		query, args := NewSQLBuilder().Insert("employees", "id", "email").Values("e1", "a@acme.io").Build()
		assertQuery(t, query, args, "INSERT INTO employees (id, email) VALUES ($1, $2)", "e1", "a@acme.io")
	})

	t.Run("Update", func(t *testing.T) {
		query, args := NewSQLBuilder().Update("employees").
			Set("department", "Sales").
			Set("location", "Pune").
			Where("id = ?", "e1").
			Build()
		assertQuery(t, query, args, "UPDATE employees SET department = $1, location = $2 WHERE id = $3", "Sales", "Pune", "e1")
	})

	t.Run("Delete", func(t *testing.T) {
		query, args := NewSQLBuilder().Delete("documents").Where("id = ?", "d1").Build()
		assertQuery(t, query, args, "DELETE FROM documents WHERE id = $1", "d1")
	})
}

func TestSQLBuilderConditions(t *testing.T) {
	t.Run("Or alternates", func(t *testing.T) {
		query, args := NewSQLBuilder().Select("id").From("employees").
			Where("role = ?", "HR_ADMIN").
			Or("role = ?", "HR_SUPER_ADMIN").
			Build()
		assertQuery(t, query, args, "SELECT id FROM employees WHERE role = $1 OR role = $2", "HR_ADMIN", "HR_SUPER_ADMIN")
	})

	t.Run("WhereGroup is ANDed and parenthesized", func(t *testing.T) {
		query, args := NewSQLBuilder().Select("id").From("employees").
			Where("onboarding_hr_id = ?", "hr1").
			WhereGroup(func(g *SQLBuilder) *SQLBuilder {
				return g.Where("role = ?", "EMPLOYEE").Or("role = ?", "ADMIN")
			}).
			Build()
		assertQuery(t, query, args,
			"SELECT id FROM employees WHERE onboarding_hr_id = $1 AND (role = $2 OR role = $3)",
			"hr1", "EMPLOYEE", "ADMIN")
	})

	t.Run("empty WhereGroup is ignored", func(t *testing.T) {
		query, _ := NewSQLBuilder().Select("id").From("employees").
			WhereGroup(func(g *SQLBuilder) *SQLBuilder { return g }).
			Build()
		assertQuery(t, query, nil, "SELECT id FROM employees")
	})

	t.Run("WhereIn", func(t *testing.T) {
		query, args := NewSQLBuilder().Select("id").From("employees").WhereIn("role", "EMPLOYEE", "ADMIN").Build()
		assertQuery(t, query, args, "SELECT id FROM employees WHERE role IN ($1, $2)", "EMPLOYEE", "ADMIN")

		query, args = NewSQLBuilder().Select("id").From("employees").WhereIn("role").Build()
		assertQuery(t, query, args, "SELECT id FROM employees WHERE FALSE")
	})

	t.Run("WhereRaw", func(t *testing.T) {
		query, args := NewSQLBuilder().Select("id").From("employees").
			WhereRaw("first_login_at IS NOT NULL OR last_login_at > ?", "2024-01-01").
			Build()
		assertQuery(t, query, args,
			"SELECT id FROM employees WHERE (first_login_at IS NOT NULL OR last_login_at > $1)", "2024-01-01")
	})
}

func TestSQLBuilderClauses(t *testing.T) {
	t.Run("Join order limit offset", func(t *testing.T) {
		query, args := NewSQLBuilder().Select("e.id", "hr.first_name").
			From("employees e").
			Join("LEFT", "employees hr", "hr.id = e.onboarding_hr_id").
			Where("e.role = ?", "EMPLOYEE").
			OrderBy("e.created_at ASC").
			Limit(5).
			Offset(10).
			Build()
		assertQuery(t, query, args,
			"SELECT e.id, hr.first_name FROM employees e LEFT JOIN employees hr ON hr.id = e.onboarding_hr_id WHERE e.role = $1 ORDER BY e.created_at ASC LIMIT 5 OFFSET 10",
			"EMPLOYEE")
	})

	t.Run("Upsert returning", func(t *testing.T) {
		query, args := NewSQLBuilder().Insert("employee_forms", "employee_id", "form_key", "status").
			Values("e1", "nda", "PENDING").
			OnConflict("(employee_id, form_key) DO UPDATE SET status = EXCLUDED.status").
			Returning("updated_at").
			Build()
		assertQuery(t, query, args,
			"INSERT INTO employee_forms (employee_id, form_key, status) VALUES ($1, $2, $3) ON CONFLICT (employee_id, form_key) DO UPDATE SET status = EXCLUDED.status RETURNING updated_at",
			"e1", "nda", "PENDING")
	})
}

func TestBuildIsRepeatable(t *testing.T) {
	b := NewSQLBuilder().Select("id").From("employees").
		Where("department = ?", "Sales").
		Or("location = ?", "Pune")

	q1, a1 := b.Build()
	q2, a2 := b.Build()
	if q1 != q2 || !reflect.DeepEqual(a1, a2) {
		t.Errorf("Build is not repeatable: %s %v vs %s %v", q1, a1, q2, a2)
	}
	if len(a2) != 2 {
		t.Errorf("expected 2 args, got %d", len(a2))
	}
}

func TestBuildSafe(t *testing.T) {
	_, _, err := NewSQLBuilder().Select("id").From("employees").Where("id = ? AND email = ?", "e1").BuildSafe()
	if err == nil {
		t.Error("expected placeholder mismatch error")
	}

	query, args, err := NewSQLBuilder().Select("id").From("employees").Where("id = ?", "e1").BuildSafe()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	assertQuery(t, query, args, "SELECT id FROM employees WHERE id = $1", "e1")
}
