package domain

import "sort"

// Course est immuable une fois récupérée du catalogue pour la session.
type Course struct {
	ID             string
	Title          string
	Description    string
	Thumbnail      string
	IsSeries       bool
	CollectionName string
	TotalDuration  string
	VideoURL       string
	VideoCount     int
	Videos         []VideoItem
}

type VideoItem struct {
	Path     string
	Title    string
	Duration string
	Index    int
}

// OrderedVideos renvoie la séquence de lecture: les vidéos de série triées
// par index, sinon la vidéo principale seule.
func (c Course) OrderedVideos() []VideoItem {
	if c.IsSeries && len(c.Videos) > 0 {
		out := make([]VideoItem, len(c.Videos))
		copy(out, c.Videos)
		sort.Slice(out, func(i, j int) bool { return out[i].Index < out[j].Index })
		return out
	}
	if c.VideoURL != "" {
		return []VideoItem{{Path: c.VideoURL, Title: c.Title, Index: 0}}
	}
	if len(c.Videos) > 0 {
		out := make([]VideoItem, len(c.Videos))
		copy(out, c.Videos)
		sort.Slice(out, func(i, j int) bool { return out[i].Index < out[j].Index })
		return out
	}
	return nil
}

func (c Course) FindVideo(path string) (VideoItem, bool) {
	for _, v := range c.OrderedVideos() {
		if v.Path == path {
			return v, true
		}
	}
	return VideoItem{}, false
}

func (c Course) HasVideo(path string) bool {
	_, ok := c.FindVideo(path)
	return ok
}
