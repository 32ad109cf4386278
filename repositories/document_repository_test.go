package repositories

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blogem/plant-maintenance/models"
)

func TestDocumentStoreInsertError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec("INSERT INTO activos").
		WithArgs("s1", "A1", "A1", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnError(errors.New("database is locked"))

	store := NewDocumentStore(db)
	err = store.InsertOne(context.Background(), "activos", "s1", models.Document{"id_activo_tecnico": "A1"})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "database is locked")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDocumentStoreDeleteRowsAffected(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec("DELETE FROM observaciones WHERE id = ?").
		WithArgs("s1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	store := NewDocumentStore(db)
	deleted, err := store.DeleteOne(context.Background(), "observaciones", "s1")

	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTransactorRollsBackOnAuditError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO tareas_correctivas").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO historial").WillReturnError(errors.New("no space left on device"))
	mock.ExpectRollback()

	repo := NewAuditedRepository("tareas_correctivas", NewDocumentStore(db), NewAuditRepository(db),
		WithTransactor(NewTransactor(db)))

	id, err := repo.InsertWithLog(context.Background(), models.Document{"id_tarea": "TC1", "id_activo_tecnico": "A1"},
		models.EventInput{Kind: "correctivo"})

	assert.Empty(t, id)
	assert.True(t, IsPersistence(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTransactorCommitsMutationAndEvent(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO tareas_correctivas").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO historial").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	repo := NewAuditedRepository("tareas_correctivas", NewDocumentStore(db), NewAuditRepository(db),
		WithTransactor(NewTransactor(db)), WithIDGenerator(func() string { return "fixed" }))

	id, err := repo.InsertWithLog(context.Background(), models.Document{"id_tarea": "TC1", "id_activo_tecnico": "A1"},
		models.EventInput{Kind: "correctivo"})

	require.NoError(t, err)
	assert.Equal(t, "fixed", id)
	assert.NoError(t, mock.ExpectationsWereMet())
}
