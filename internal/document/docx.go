package document

import (
	"bytes"

	"code.sajari.com/docconv/v2"

	"github.com/joseph-ayodele/budget-extractor/internal/entity"
)

const docxMime = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"

func docxText(data []byte) (string, entity.Metadata, error) {
	res, err := docconv.Convert(bytes.NewReader(data), docxMime, false)
	if err != nil {
		return "", entity.Metadata{}, err
	}
	meta := entity.Metadata{
		Title:        res.Meta["Title"],
		Author:       res.Meta["Author"],
		CreationDate: res.Meta["CreatedDate"],
		ModDate:      res.Meta["ModifiedDate"],
	}
	return res.Body, meta, nil
}
