package xmlq

import (
	"testing"

	"github.com/beevik/etree"
	"github.com/stretchr/testify/require"

	"github.com/strefethen/soundtouch-hub-go/pkg/soundtouch/apperrors"
)

const sample = `<?xml version="1.0" encoding="UTF-8" ?>
<nowPlaying deviceID="A1" source="SPOTIFY">
  <ContentItem source="SPOTIFY" isPresetable="true">
    <itemName>  Song  </itemName>
  </ContentItem>
  <track>Song</track>
  <empty></empty>
  <nested><inner>x</inner>tail</nested>
  <preset id="1"/>
  <group><preset id="2"/></group>
  <preset id="3"/>
</nowPlaying>`

func mustParse(t *testing.T, payload string) *etree.Document {
	t.Helper()
	doc, err := Parse([]byte(payload))
	require.NoError(t, err)
	return doc
}

func TestParse(t *testing.T) {
	t.Run("well formed", func(t *testing.T) {
		doc := mustParse(t, sample)
		require.Equal(t, "nowPlaying", doc.Root().Tag)
	})

	t.Run("truncated document", func(t *testing.T) {
		_, err := Parse([]byte(`<updates><volumeUpdated`))
		require.Error(t, err)
		require.True(t, apperrors.IsParse(err))
	})

	t.Run("no root element", func(t *testing.T) {
		_, err := Parse([]byte(`just text`))
		require.Error(t, err)
		require.True(t, apperrors.IsParse(err))
	})
}

func TestElementSearchScope(t *testing.T) {
	doc := mustParse(t, sample)

	t.Run("document search includes the root", func(t *testing.T) {
		value, ok := ElementAttr(DocumentNode(doc), "nowPlaying", "source")
		require.True(t, ok)
		require.Equal(t, "SPOTIFY", value)
	})

	t.Run("element search excludes itself", func(t *testing.T) {
		require.Nil(t, Element(doc.Root(), "nowPlaying"))
	})

	t.Run("elements come in document order", func(t *testing.T) {
		var ids []string
		for _, el := range Elements(doc.Root(), "preset") {
			id, _ := Attr(el, "id")
			ids = append(ids, id)
		}
		require.Equal(t, []string{"1", "2", "3"}, ids)
	})

	t.Run("no match", func(t *testing.T) {
		require.Empty(t, Elements(doc.Root(), "missing"))
		require.Nil(t, Element(nil, "preset"))
	})
}

func TestElementValue(t *testing.T) {
	doc := mustParse(t, sample)
	root := doc.Root()

	t.Run("trims text", func(t *testing.T) {
		value, ok := ElementValue(root, "itemName")
		require.True(t, ok)
		require.Equal(t, "Song", value)
	})

	t.Run("missing element", func(t *testing.T) {
		_, ok := ElementValue(root, "album")
		require.False(t, ok)
	})

	t.Run("element without text", func(t *testing.T) {
		_, ok := ElementValue(root, "empty")
		require.False(t, ok)
	})

	t.Run("first child must be text", func(t *testing.T) {
		_, ok := ElementValue(root, "nested")
		require.False(t, ok)
	})
}

func TestAttributes(t *testing.T) {
	doc := mustParse(t, sample)
	root := doc.Root()

	t.Run("element present without attribute", func(t *testing.T) {
		value, ok := ElementAttr(root, "ContentItem", "location")
		require.False(t, ok)
		require.Empty(t, value)
	})

	t.Run("element absent", func(t *testing.T) {
		_, ok := ElementAttr(root, "art", "artImageStatus")
		require.False(t, ok)
	})

	t.Run("own attribute", func(t *testing.T) {
		value, ok := Attr(root, "deviceID")
		require.True(t, ok)
		require.Equal(t, "A1", value)
	})
}

func TestScalars(t *testing.T) {
	t.Run("absent int stays absent", func(t *testing.T) {
		n, err := Int("", false)
		require.NoError(t, err)
		require.Nil(t, n)
	})

	t.Run("int parses", func(t *testing.T) {
		n, err := Int(" 42 ", true)
		require.NoError(t, err)
		require.Equal(t, 42, *n)
	})

	t.Run("non integral", func(t *testing.T) {
		_, err := Int("4.2", true)
		require.Error(t, err)
	})

	t.Run("bool literal", func(t *testing.T) {
		require.True(t, Bool("true", true))
		require.False(t, Bool("TRUE", true))
		require.False(t, Bool("", false))
	})
}

func TestFirstChildElementSkipsWhitespace(t *testing.T) {
	doc := mustParse(t, "<updates>\n  <volumeUpdated/>\n  <infoUpdated/>\n</updates>")
	require.Equal(t, "volumeUpdated", Name(FirstChildElement(doc.Root())))
	require.Nil(t, FirstChildElement(FirstChildElement(doc.Root())))
	require.Equal(t, "", Name(nil))
}

func TestSerialize(t *testing.T) {
	doc := mustParse(t, `<preset id="1"><ContentItem source="TUNEIN" location="/v1/s"><itemName>Radio</itemName></ContentItem></preset>`)

	out, err := Serialize(Element(doc.Root(), "ContentItem"))
	require.NoError(t, err)
	require.Equal(t, `<ContentItem source="TUNEIN" location="/v1/s"><itemName>Radio</itemName></ContentItem>`, out)

	// serializing must not detach the node from its document
	require.NotNil(t, Element(doc.Root(), "ContentItem"))
}
