package nvm3_test

import (
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"github.com/deploymenttheory/go-nvm3"
)

func TestParseImageZeroOptionCallSite(t *testing.T) {
	app := nvm3.NewOrderedObjectMap()
	proto := nvm3.NewOrderedObjectMap()

	buf, err := nvm3.EncodeImage(app, proto, nvm3.DefaultEncodeOptions())
	require.NoError(t, err)

	got, err := nvm3.ParseImage(buf)
	require.NoError(t, err)
	require.Equal(t, 0, got.ApplicationObjects.Len())
}

func TestParseImageWithVerboseAndErrorPolicyOptions(t *testing.T) {
	app := nvm3.NewOrderedObjectMap()
	app.Set(nvm3.NVMObject{Key: 1, Type: nvm3.DataSmall, Payload: []byte{0x42}})
	proto := nvm3.NewOrderedObjectMap()

	buf, err := nvm3.EncodeImage(app, proto, nvm3.DefaultEncodeOptions())
	require.NoError(t, err)

	logger := logrus.New()
	got, err := nvm3.ParseImage(buf,
		nvm3.WithVerbose(logger),
		nvm3.WithErrorPolicy(nvm3.PolicySkipPage),
	)
	require.NoError(t, err)
	obj, ok := got.ApplicationObjects.Get(1)
	require.True(t, ok)
	require.Equal(t, []byte{0x42}, obj.Payload)
}

func TestParseImageWrapsSentinelErrors(t *testing.T) {
	app := nvm3.NewOrderedObjectMap()
	proto := nvm3.NewOrderedObjectMap()
	buf, err := nvm3.EncodeImage(app, proto, nvm3.DefaultEncodeOptions())
	require.NoError(t, err)

	buf[2] ^= 0xFF

	_, err = nvm3.ParseImage(buf)
	require.ErrorIs(t, err, nvm3.ErrBadMagic)
}
