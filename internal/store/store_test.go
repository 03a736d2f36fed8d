package store

import (
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"library-streaming-api/internal/models"
)

func testLogger() *logrus.Entry {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logrus.NewEntry(logger)
}

func openTestStore(t *testing.T) (*Store, string) {
	t.Helper()
	dir := t.TempDir()
	s, err := Open(dir, testLogger())
	require.NoError(t, err)
	return s, dir
}

func TestOpenSeedsCatalogOnce(t *testing.T) {
	s, dir := openTestStore(t)

	books := s.Books()
	require.NotEmpty(t, books)
	for _, b := range books {
		assert.True(t, b.Available, "seeded books start available")
	}

	_, err := os.Stat(filepath.Join(dir, booksFile))
	require.NoError(t, err, "seeding must persist the catalog")

	reopened, err := Open(dir, testLogger())
	require.NoError(t, err)
	assert.Len(t, reopened.Books(), len(books), "reopening must not reseed")
}

func TestBookLifecycle(t *testing.T) {
	s, _ := openTestStore(t)

	created, err := s.CreateBook(models.Book{
		Title:         "The Mythical Man-Month",
		Author:        "Fred Brooks",
		ISBN:          "978-0-20183-595-3",
		Category:      "Technology",
		PublishedYear: 1975,
	})
	require.NoError(t, err)
	assert.Positive(t, created.ID)
	assert.True(t, created.Available)

	got, err := s.Book(created.ID)
	require.NoError(t, err)
	assert.Equal(t, created, got)

	updated := created
	updated.Title = "The Mythical Man-Month, Anniversary Edition"
	got, err = s.UpdateBook(created.ID, updated)
	require.NoError(t, err)
	assert.Equal(t, "The Mythical Man-Month, Anniversary Edition", got.Title)

	require.NoError(t, s.DeleteBook(created.ID))
	_, err = s.Book(created.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, s.DeleteBook(created.ID), ErrNotFound)
}

func TestUpdateBookKeepsAvailability(t *testing.T) {
	s, _ := openTestStore(t)
	user, err := s.CreateUser("Reader", "reader@example.com", "hash", models.RoleMember)
	require.NoError(t, err)

	book := s.Books()[0]
	_, err = s.CreateIssue(book.ID, user.ID)
	require.NoError(t, err)

	edit := book
	edit.Available = true // callers cannot force it back
	edit.Category = "Science"
	got, err := s.UpdateBook(book.ID, edit)
	require.NoError(t, err)
	assert.False(t, got.Available, "availability belongs to circulation, not updates")
}

func TestFirstAccountBecomesAdmin(t *testing.T) {
	s, _ := openTestStore(t)

	first, err := s.CreateUser("Root", "root@example.com", "hash", "")
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, first.Role)

	second, err := s.CreateUser("Later", "later@example.com", "hash", "")
	require.NoError(t, err)
	assert.Equal(t, models.RoleMember, second.Role)
}

func TestCreateUserRejectsDuplicateEmail(t *testing.T) {
	s, _ := openTestStore(t)

	u, err := s.CreateUser("Ada", "ada@example.com", "hash-a", models.RoleMember)
	require.NoError(t, err)
	assert.NotEmpty(t, u.ID)
	assert.Equal(t, models.RoleMember, u.Role)

	_, err = s.CreateUser("Other Ada", "ADA@example.com", "hash-b", models.RoleMember)
	assert.ErrorIs(t, err, ErrEmailTaken)

	byEmail, err := s.UserByEmail("Ada@Example.com")
	require.NoError(t, err)
	assert.Equal(t, u.ID, byEmail.ID)

	_, err = s.UserByEmail("nobody@example.com")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestBorrowAndReturnFlow(t *testing.T) {
	s, _ := openTestStore(t)
	user, err := s.CreateUser("Reader", "reader@example.com", "hash", models.RoleMember)
	require.NoError(t, err)

	book := s.Books()[0]
	issue, err := s.CreateIssue(book.ID, user.ID)
	require.NoError(t, err)
	assert.Equal(t, models.IssueBorrowed, issue.Type)
	require.NotNil(t, issue.DueDate)
	assert.WithinDuration(t, issue.IssuedAt.Add(models.LoanPeriod), *issue.DueDate, time.Second)

	got, err := s.Book(book.ID)
	require.NoError(t, err)
	assert.False(t, got.Available)

	_, err = s.CreateIssue(book.ID, user.ID)
	assert.ErrorIs(t, err, ErrBookUnavailable)

	returned, fine, err := s.ReturnIssue(issue.ID)
	require.NoError(t, err)
	assert.Equal(t, models.IssueReturned, returned.Type)
	require.NotNil(t, returned.ReturnedAt)
	assert.Nil(t, fine, "an on-time return charges no fine")

	got, err = s.Book(book.ID)
	require.NoError(t, err)
	assert.True(t, got.Available)

	_, _, err = s.ReturnIssue(issue.ID)
	assert.ErrorIs(t, err, ErrAlreadyReturned)
}

func TestIssueRequiresExistingBookAndUser(t *testing.T) {
	s, _ := openTestStore(t)
	user, err := s.CreateUser("Reader", "reader@example.com", "hash", models.RoleMember)
	require.NoError(t, err)

	_, err = s.CreateIssue(99999, user.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	// Missing book and missing borrower are different failures.
	book := s.Books()[0]
	_, err = s.CreateIssue(book.ID, "ghost")
	assert.ErrorIs(t, err, ErrUserNotFound)
	assert.NotErrorIs(t, err, ErrNotFound)

	got, err := s.Book(book.ID)
	require.NoError(t, err)
	assert.True(t, got.Available, "a refused loan leaves the copy on the shelf")
}

func TestLateReturnCreatesFine(t *testing.T) {
	s, _ := openTestStore(t)

	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return base }

	user, err := s.CreateUser("Reader", "reader@example.com", "hash", models.RoleMember)
	require.NoError(t, err)

	issue, err := s.CreateIssue(s.Books()[0].ID, user.ID)
	require.NoError(t, err)

	// Three full days past due, plus an hour into a fourth.
	s.now = func() time.Time { return base.Add(models.LoanPeriod + 73*time.Hour) }

	_, fine, err := s.ReturnIssue(issue.ID)
	require.NoError(t, err)
	require.NotNil(t, fine)
	assert.EqualValues(t, 4*overdueFinePerDay, fine.Amount)
	assert.Equal(t, user.ID, fine.UserID)
	assert.Equal(t, issue.ID, fine.IssueID)
	assert.False(t, fine.Paid)

	fines := s.Fines()
	require.Len(t, fines, 1)

	paid, err := s.PayFine(fine.ID)
	require.NoError(t, err)
	assert.True(t, paid.Paid)
	require.NotNil(t, paid.PaidAt)

	_, err = s.PayFine(fine.ID)
	assert.ErrorIs(t, err, ErrFinePaid)

	_, err = s.PayFine(99999)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStateSurvivesReopen(t *testing.T) {
	s, dir := openTestStore(t)

	user, err := s.CreateUser("Reader", "reader@example.com", "hash", models.RoleMember)
	require.NoError(t, err)
	book, err := s.CreateBook(models.Book{Title: "Persist Me", Author: "Anon", Category: "Fiction"})
	require.NoError(t, err)
	issue, err := s.CreateIssue(book.ID, user.ID)
	require.NoError(t, err)

	reopened, err := Open(dir, testLogger())
	require.NoError(t, err)

	gotBook, err := reopened.Book(book.ID)
	require.NoError(t, err)
	assert.False(t, gotBook.Available, "open loan survives restart")

	gotUser, err := reopened.User(user.ID)
	require.NoError(t, err)
	assert.Equal(t, user.Email, gotUser.Email)

	issues := reopened.Issues()
	require.Len(t, issues, 1)
	assert.Equal(t, issue.ID, issues[0].ID)

	// Fresh ids keep counting from where the old process stopped.
	another, err := reopened.CreateBook(models.Book{Title: "Another", Author: "Anon"})
	require.NoError(t, err)
	assert.Greater(t, another.ID, book.ID)

	_, _, err = reopened.ReturnIssue(issue.ID)
	require.NoError(t, err)
	gotBook, err = reopened.Book(book.ID)
	require.NoError(t, err)
	assert.True(t, gotBook.Available)
}
