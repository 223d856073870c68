package testsupport

// FakeYtdlpScript mimics the yt-dlp invocations ytdb makes. It answers
// --version, writes a media file and info.json next to the --output template,
// and fails like a private video for ids containing "PRIV" and like a removed
// video for ids containing "GONE".
const FakeYtdlpScript = `#!/bin/sh
if [ "$1" = "--version" ]; then
  echo 2026.09.01
  exit 0
fi
out=""
url=""
while [ $# -gt 0 ]; do
  case "$1" in
    --output) out="$2"; shift ;;
    https://*) url="$1" ;;
  esac
  shift
done
case "$url" in
  *PRIV*)
    echo "WARNING: [youtube] retrying" >&2
    echo "ERROR: [youtube] Private video. Sign in if you've been granted access to this video" >&2
    exit 1 ;;
  *GONE*)
    echo "ERROR: [youtube] This video has been removed by the uploader" >&2
    exit 1 ;;
esac
base="${out%.*}"
echo "media" > "$base.webm"
echo '{"id": "fake"}' > "$base.info.json"
echo "[download] 100%"
`
