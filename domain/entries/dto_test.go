package entries

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateEntryRequestValidate(t *testing.T) {
	req := &CreateEntryRequest{}
	errs := req.Validate()
	require.Len(t, errs, 2)
	assert.Equal(t, "content_type_id", errs[0].Field)
	assert.Equal(t, "slug", errs[1].Field)

	req = &CreateEntryRequest{ContentTypeID: uuid.New(), Slug: "hello-world"}
	assert.Empty(t, req.Validate())
}

func TestCreateContentTypeRequestValidate(t *testing.T) {
	req := &CreateContentTypeRequest{}
	require.Len(t, req.Validate(), 1)

	req.Name = "post"
	assert.Empty(t, req.Validate())
}
