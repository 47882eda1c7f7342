package policy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/garyjia/expense-workflow/internal/domain/entity"
	domainwf "github.com/garyjia/expense-workflow/internal/domain/workflow"
)

var (
	owner   = ViewContext{ViewerRole: RoleOwner, ViewerID: "emp-1"}
	other   = ViewContext{ViewerRole: RoleOwner, ViewerID: "emp-2"}
	manager = ViewContext{ViewerRole: RoleManager, ViewerID: "mgr-1"}
	proxy   = ViewContext{ViewerRole: RoleManager, ViewerID: "mgr-1", ActingAsOwnerID: "emp-1"}
)

func claimWith(status entity.Status, checked bool) *entity.ExpenseClaim {
	claim := entity.NewClaim(entity.Period{Year: 2025, Month: 4}, "emp-1")
	claim.ID = 10
	claim.Status = status
	claim.ManagerChecked = checked
	return claim
}

func TestViewContext(t *testing.T) {
	assert.Equal(t, "emp-1", owner.OwnerID())
	assert.Equal(t, "mgr-1", manager.OwnerID())
	assert.Equal(t, "emp-1", proxy.OwnerID())
	assert.True(t, proxy.IsProxy())
	assert.False(t, manager.IsProxy())

	// an owner cannot proxy
	fake := ViewContext{ViewerRole: RoleOwner, ViewerID: "emp-2", ActingAsOwnerID: "emp-1"}
	assert.False(t, fake.IsProxy())
	assert.Equal(t, "emp-2", fake.OwnerID())
}

func TestCanEdit(t *testing.T) {
	tests := []struct {
		status     entity.Status
		checked    bool
		ownerCan   bool
		managerCan bool
		proxyCan   bool
	}{
		{entity.StatusDraft, false, true, false, true},
		{entity.StatusRejected, false, true, false, true},
		{entity.StatusSubmitted, false, false, true, true},
		{entity.StatusModify, false, false, true, true},
		{entity.StatusApproved, false, false, false, true},
		{entity.StatusSubmitted, true, false, false, false},
		{entity.StatusApproved, true, false, false, false},
		{entity.StatusCompleted, true, false, false, false},
		{entity.StatusCompleted, false, false, false, false},
		{entity.StatusNotSubmitted, false, false, false, false},
	}

	for _, tt := range tests {
		name := string(tt.status)
		if tt.checked {
			name += "/checked"
		}
		t.Run(name, func(t *testing.T) {
			claim := claimWith(tt.status, tt.checked)
			assert.Equal(t, tt.ownerCan, CanEdit(claim, owner), "owner")
			assert.Equal(t, tt.managerCan, CanEdit(claim, manager), "manager")
			assert.Equal(t, tt.proxyCan, CanEdit(claim, proxy), "proxy")
			assert.False(t, CanEdit(claim, other), "other employee")
		})
	}
}

func TestCanEdit_ManagerOwnDraft(t *testing.T) {
	claim := claimWith(entity.StatusDraft, false)
	claim.OwnerID = "mgr-1"
	assert.True(t, CanEdit(claim, manager))
}

func TestManagerEditing(t *testing.T) {
	assert.True(t, ManagerEditing(claimWith(entity.StatusSubmitted, false), manager))
	assert.True(t, ManagerEditing(claimWith(entity.StatusModify, false), manager))
	assert.False(t, ManagerEditing(claimWith(entity.StatusSubmitted, true), manager))
	assert.False(t, ManagerEditing(claimWith(entity.StatusSubmitted, false), owner))
	assert.False(t, ManagerEditing(claimWith(entity.StatusDraft, false), proxy))
}

func TestCheckRowDeletion(t *testing.T) {
	twoRows := func(status entity.Status, checked bool, persisted bool) *entity.ExpenseClaim {
		claim := claimWith(status, checked)
		second := entity.NewBlankRow(claim.Period)
		if persisted {
			second.RowID = entity.Ptr(int64(7))
		}
		claim.Rows = append(claim.Rows, second)
		return claim
	}

	t.Run("owner draft deferred", func(t *testing.T) {
		got, err := CheckRowDeletion(twoRows(entity.StatusDraft, false, true), 1, owner)
		require.NoError(t, err)
		assert.Equal(t, DeletionDeferred, got)
	})

	t.Run("manager review persisted row is immediate", func(t *testing.T) {
		got, err := CheckRowDeletion(twoRows(entity.StatusSubmitted, false, true), 1, manager)
		require.NoError(t, err)
		assert.Equal(t, DeletionImmediate, got)
	})

	t.Run("manager review new row is deferred", func(t *testing.T) {
		got, err := CheckRowDeletion(twoRows(entity.StatusSubmitted, false, false), 1, manager)
		require.NoError(t, err)
		assert.Equal(t, DeletionDeferred, got)
	})

	t.Run("checked claim", func(t *testing.T) {
		_, err := CheckRowDeletion(twoRows(entity.StatusSubmitted, true, true), 1, manager)
		assert.ErrorIs(t, err, entity.ErrClaimLocked)
	})

	t.Run("last row", func(t *testing.T) {
		_, err := CheckRowDeletion(claimWith(entity.StatusDraft, false), 0, owner)
		assert.ErrorIs(t, err, entity.ErrLastRow)
	})

	t.Run("not editable", func(t *testing.T) {
		_, err := CheckRowDeletion(twoRows(entity.StatusSubmitted, false, true), 1, owner)
		assert.ErrorIs(t, err, entity.ErrNotEditable)
	})

	t.Run("out of range", func(t *testing.T) {
		_, err := CheckRowDeletion(twoRows(entity.StatusDraft, false, false), 5, owner)
		assert.ErrorIs(t, err, entity.ErrRowNotFound)
	})
}

func TestCheckRowConfirm(t *testing.T) {
	assert.NoError(t, CheckRowConfirm(claimWith(entity.StatusSubmitted, false), 0, manager))
	assert.ErrorIs(t, CheckRowConfirm(claimWith(entity.StatusSubmitted, false), 0, owner), entity.ErrForbidden)
	assert.ErrorIs(t, CheckRowConfirm(claimWith(entity.StatusSubmitted, true), 0, manager), entity.ErrClaimLocked)
	assert.ErrorIs(t, CheckRowConfirm(claimWith(entity.StatusDraft, false), 0, manager), entity.ErrNotEditable)
	assert.ErrorIs(t, CheckRowConfirm(claimWith(entity.StatusSubmitted, false), 3, manager), entity.ErrRowNotFound)
}

func TestCheckManagerLock(t *testing.T) {
	assert.NoError(t, CheckManagerLock(claimWith(entity.StatusApproved, false), manager))
	assert.ErrorIs(t, CheckManagerLock(claimWith(entity.StatusApproved, false), owner), entity.ErrForbidden)
	assert.ErrorIs(t, CheckManagerLock(claimWith(entity.StatusDraft, false), manager), entity.ErrNotEditable)
}

func TestAuthorizeTrigger(t *testing.T) {
	tests := []struct {
		name    string
		claim   *entity.ExpenseClaim
		view    ViewContext
		trigger domainwf.Trigger
		wantErr error
	}{
		{"owner submits", claimWith(entity.StatusDraft, false), owner, domainwf.TriggerSubmit, nil},
		{"proxy submits", claimWith(entity.StatusDraft, false), proxy, domainwf.TriggerSubmit, nil},
		{"manager without proxy cannot submit", claimWith(entity.StatusDraft, false), manager, domainwf.TriggerSubmit, entity.ErrForbidden},
		{"other employee", claimWith(entity.StatusDraft, false), other, domainwf.TriggerSubmit, entity.ErrForbidden},
		{"owner cannot approve", claimWith(entity.StatusSubmitted, false), owner, domainwf.TriggerApprove, entity.ErrForbidden},
		{"manager approves", claimWith(entity.StatusSubmitted, false), manager, domainwf.TriggerApprove, nil},
		{"manager approves checked", claimWith(entity.StatusSubmitted, true), manager, domainwf.TriggerApprove, nil},
		{"manager completes checked", claimWith(entity.StatusApproved, true), manager, domainwf.TriggerComplete, nil},
		{"checked blocks reject", claimWith(entity.StatusApproved, true), manager, domainwf.TriggerReject, entity.ErrClaimLocked},
		{"owner reopens", claimWith(entity.StatusRejected, false), owner, domainwf.TriggerReopen, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := AuthorizeTrigger(tt.claim, tt.view, tt.trigger)
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}
