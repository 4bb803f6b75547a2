package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestListParamsValidate(t *testing.T) {
	assert.NoError(t, ListParams{PageIndex: 1, PageSize: 20}.validate())
	assert.Error(t, ListParams{PageIndex: 0, PageSize: 20}.validate())
	assert.Error(t, ListParams{PageIndex: 1, PageSize: 0}.validate())
	assert.Error(t, ListParams{PageIndex: 1, PageSize: 501}.validate())
}

func TestListParamsOffset(t *testing.T) {
	assert.Equal(t, 0, ListParams{PageIndex: 1, PageSize: 20}.offset())
	assert.Equal(t, 40, ListParams{PageIndex: 3, PageSize: 20}.offset())
}

func TestTotalPages(t *testing.T) {
	assert.Equal(t, 0, totalPages(0, 20))
	assert.Equal(t, 1, totalPages(1, 20))
	assert.Equal(t, 1, totalPages(20, 20))
	assert.Equal(t, 2, totalPages(21, 20))
	assert.Equal(t, 0, totalPages(10, 0))
}
