package employee_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/workshopops/accesscontrol/internal/core/domain/employee"
)

func TestStatus_Transitions(t *testing.T) {
	allowed := map[employee.Status][]employee.Status{
		employee.StatusInvited:  {employee.StatusPending, employee.StatusBlocked},
		employee.StatusPending:  {employee.StatusApproved, employee.StatusRejected, employee.StatusBlocked},
		employee.StatusApproved: {employee.StatusBlocked, employee.StatusInactive},
		employee.StatusRejected: {employee.StatusBlocked},
		employee.StatusBlocked:  {employee.StatusApproved},
		employee.StatusInactive: {employee.StatusApproved, employee.StatusBlocked},
	}
	all := []employee.Status{employee.StatusInvited, employee.StatusPending, employee.StatusApproved,
		employee.StatusRejected, employee.StatusBlocked, employee.StatusInactive}
	for from, targets := range allowed {
		for _, to := range all {
			want := false
			for _, ok := range targets {
				if ok == to {
					want = true
				}
			}
			require.Equal(t, want, from.IsValidTransition(to), "%s -> %s", from, to)
		}
	}
}

func TestParseStatus(t *testing.T) {
	st, err := employee.ParseStatus("active")
	require.NoError(t, err)
	require.Equal(t, employee.StatusApproved, st)

	st, err = employee.ParseStatus(" Pending ")
	require.NoError(t, err)
	require.Equal(t, employee.StatusPending, st)

	_, err = employee.ParseStatus("archived")
	require.Error(t, err)
}

func TestStatus_Scan(t *testing.T) {
	var st employee.Status
	require.NoError(t, st.Scan([]byte("active")))
	require.Equal(t, employee.StatusApproved, st)
	require.Error(t, st.Scan(nil))
	require.Error(t, st.Scan(42))
}

func TestEmployee_InternalByVinculo(t *testing.T) {
	require.True(t, (&employee.Employee{TipoVinculo: "INTERNO"}).InternalByVinculo())
	require.False(t, (&employee.Employee{TipoVinculo: "pj"}).InternalByVinculo())
}
